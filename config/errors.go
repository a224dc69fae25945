// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidStore indicates the store backend is not recognized.
	ErrInvalidStore = errors.New("config: invalid store (must be \"bolt\" or \"memory\")")

	// ErrInvalidListenAddr indicates the listen address is malformed.
	ErrInvalidListenAddr = errors.New("config: invalid listen address")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidOwner indicates the owner is not a valid identity.
	ErrInvalidOwner = errors.New("config: invalid owner identity")

	// ErrInvalidNonceTTL indicates a non-positive request nonce lifetime.
	ErrInvalidNonceTTL = errors.New("config: nonce ttl must be positive")

	// ErrInvalidCreatorPolicy indicates an unknown creator policy.
	ErrInvalidCreatorPolicy = errors.New("config: invalid creator policy (must be \"open\" or \"allowlist\")")

	// ErrInvalidCreator indicates an allowlist entry that is not a valid identity.
	ErrInvalidCreator = errors.New("config: invalid creator identity")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")

	// ErrInvalidConfigValue indicates a value that cannot be parsed for its key.
	ErrInvalidConfigValue = errors.New("config: invalid configuration value")
)
