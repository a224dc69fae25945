// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net"

	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/logging"
)

// ValidateConfig returns the first invalid setting in cfg, or nil.
func ValidateConfig(cfg Config) error {
	switch {
	case cfg.DataDir == "":
		return ErrEmptyDataDir
	case cfg.Store != StoreBolt && cfg.Store != StoreMemory:
		return fmt.Errorf("%w: %q", ErrInvalidStore, cfg.Store)
	case cfg.NonceTTL <= 0:
		return ErrInvalidNonceTTL
	}

	if _, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidListenAddr, err)
	}
	// An empty level means info for the logger but is rejected in a config file.
	if cfg.LogLevel == "" {
		return ErrInvalidLogLevel
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLogLevel, err)
	}
	if cfg.Owner != "" {
		if _, err := ident.Parse(cfg.Owner); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOwner, err)
		}
	}
	switch cfg.CreatorPolicy {
	case "", PolicyOpen:
	case PolicyAllowList:
		for _, c := range cfg.Creators {
			if _, err := ident.Parse(c); err != nil {
				return fmt.Errorf("%w: %q: %w", ErrInvalidCreator, c, err)
			}
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCreatorPolicy, cfg.CreatorPolicy)
	}
	return nil
}
