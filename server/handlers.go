package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bitfsorg/libfactory-go/access"
	"github.com/bitfsorg/libfactory-go/builder"
	"github.com/bitfsorg/libfactory-go/event"
	"github.com/bitfsorg/libfactory-go/factory"
	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/registry"
)

// StatusResponse is the body of GET /v1/status.
type StatusResponse struct {
	Self   ident.Identity `json:"self"`
	Height uint64         `json:"height"`
	Paused bool           `json:"paused"`
}

// CollectionResponse is the body of GET /v1/collections/{colID}.
type CollectionResponse struct {
	ColID  registry.ColID            `json:"col_id"`
	Record registry.CollectionRecord `json:"record"`
}

// CreatorCollectionsResponse is the body of GET /v1/creators/{id}/collections.
type CreatorCollectionsResponse struct {
	Creator ident.Identity   `json:"creator"`
	Count   uint64           `json:"count"`
	IDs     []registry.ColID `json:"ids"`
}

// PredictResponse is the body of GET /v1/predict.
type PredictResponse struct {
	Address ident.Identity `json:"address"`
	ColID   registry.ColID `json:"col_id"`
}

// SplitterRequest is the body of POST /v1/splitters.
type SplitterRequest struct {
	Salt            string         `json:"salt"`
	Ambassador      ident.Identity `json:"ambassador"`
	Project         ident.Identity `json:"project"`
	AmbassadorShare uint64         `json:"ambassador_share"`
	ProjectShare    uint64         `json:"project_share"`
}

// AdminRequest is the body of POST /v1/admin/{action}.
type AdminRequest struct {
	Address ident.Identity `json:"address"`
	Index   *int64         `json:"index,omitempty"`
	Builder string         `json:"builder,omitempty"` // kind or hex handle
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	h, err := s.ledger.Height()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	roles, err := s.ledger.Roles()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Self: s.ledger.Self(), Height: h, Paused: roles.Paused})
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	id, err := registry.ParseColID(chi.URLParam(r, "colID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.ledger.ColInfo(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rec.IsZero() {
		s.writeError(w, r, fmt.Errorf("%w: collection %s", ErrNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, CollectionResponse{ColID: id, Record: rec})
}

func (s *Server) handleCreatorCollections(w http.ResponseWriter, r *http.Request) {
	creator, err := ident.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	offset, err := queryUint(r, "offset", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryUint(r, "limit", 100)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.ledger.GetIDsLength(creator)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ids, err := s.ledger.UserCollections(creator, offset, int(min(limit, 1000)))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []registry.ColID{}
	}
	writeJSON(w, http.StatusOK, CreatorCollectionsResponse{Creator: creator, Count: n, IDs: ids})
}

func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.ledger.Types()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if types == nil {
		types = []registry.TypeEntry{}
	}
	writeJSON(w, http.StatusOK, types)
}

func (s *Server) handleGetType(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseInt(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: index: %w", ErrBadRequest, err))
		return
	}
	index, err := factory.ParseVariant(n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	handle, err := s.ledger.ColTypes(index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if handle.IsZero() {
		s.writeError(w, r, fmt.Errorf("%w: type %d", ErrNotFound, index))
		return
	}
	writeJSON(w, http.StatusOK, registry.TypeEntry{Index: index, Builder: handle})
}

func (s *Server) handleGetSplitter(w http.ResponseWriter, r *http.Request) {
	a, err := ident.Parse(chi.URLParam(r, "a"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := ident.Parse(chi.URLParam(r, "b"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.ledger.SplitterInfo(a, b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !rec.Valid {
		s.writeError(w, r, fmt.Errorf("%w: splitter %s/%s", ErrNotFound, a, b))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handlePayouts(w http.ResponseWriter, r *http.Request) {
	addr, err := ident.Parse(chi.URLParam(r, "addr"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	amount, err := queryUint(r, "amount", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	payouts, err := s.ledger.SplitterPayouts(addr, amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payouts)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	salt := q.Get("salt")
	if salt == "" {
		s.writeError(w, r, fmt.Errorf("%w: salt is required", ErrBadRequest))
		return
	}
	deployer, err := ident.Parse(q.Get("deployer"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	addr := s.ledger.GetDeployedAddr(salt, deployer)
	writeJSON(w, http.StatusOK, PredictResponse{Address: addr, ColID: s.ledger.GetColID(addr)})
}

func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.ledger.Roles()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	from, err := queryUint(r, "from", 1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryUint(r, "limit", 100)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entries, err := s.ledger.Events(from, int(min(limit, 1000)))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []event.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())
	var p factory.CreateParams
	if err := decodeBody(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.ledger.CreateCollection(r.Context(), caller, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleSplitterCheck(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())
	var req SplitterRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.ledger.SplitterCheck(r.Context(), caller, req.Salt, req.Ambassador, req.Project, req.AmbassadorShare, req.ProjectShare)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, _ := CallerFrom(ctx)
	action := chi.URLParam(r, "action")
	var req AdminRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, r, err)
		return
	}

	var err error
	switch action {
	case "pause":
		err = s.ledger.Pause(ctx, caller)
	case "unpause":
		err = s.ledger.Unpause(ctx, caller)
	case "install_default_types":
		err = s.ledger.InstallDefaultTypes(ctx, caller)
	case "add_col_type", "replace_col_type":
		var index uint8
		var handle ident.Identity
		index, handle, err = typeArgs(req)
		if err != nil {
			break
		}
		if action == "add_col_type" {
			err = s.ledger.AddColType(ctx, caller, index, handle)
		} else {
			err = s.ledger.ReplaceColType(ctx, caller, index, handle)
		}
	default:
		role, perr := parseSetter(action)
		if perr != nil {
			err = perr
			break
		}
		err = s.ledger.SetRole(ctx, caller, role, req.Address)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	roles, err := s.ledger.Roles()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

func parseSetter(action string) (access.Role, error) {
	name, ok := strings.CutPrefix(action, "set_")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	role, err := access.ParseRole(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrUnknownAction, action, err)
	}
	return role, nil
}

func typeArgs(req AdminRequest) (uint8, ident.Identity, error) {
	if req.Index == nil {
		return 0, ident.Zero, fmt.Errorf("%w: index is required", ErrBadRequest)
	}
	index, err := factory.ParseVariant(*req.Index)
	if err != nil {
		return 0, ident.Zero, err
	}
	if req.Builder == "" {
		return 0, ident.Zero, fmt.Errorf("%w: builder is required", ErrBadRequest)
	}
	if strings.HasPrefix(req.Builder, "0x") {
		handle, err := ident.Parse(req.Builder)
		return index, handle, err
	}
	return index, builder.HandleOf(req.Builder), nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: body: %w", ErrBadRequest, err)
	}
	return nil
}

func queryUint(r *http.Request, key string, def uint64) (uint64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrBadRequest, key, err)
	}
	return n, nil
}
