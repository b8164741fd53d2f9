//go:build !cgo

package graph

import "errors"

// The KuzuDB driver requires CGO. These stubs let pure-Go builds compile;
// callers should fall back to MemStore.

var errNoCGO = errors.New("kuzu: built without CGO; use the in-memory store")

func NewKuzuStore() (Store, error)                  { return nil, errNoCGO }
func NewKuzuFileStore(dbPath string) (Store, error) { return nil, errNoCGO }
