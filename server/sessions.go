// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"sync"

	"github.com/khampha-vn/khampha/discovery"
)

// liveSession keeps the context of a session between requests so its pacer
// survives, and serializes load more rounds on it.
type liveSession struct {
	mu sync.Mutex
	sc *discovery.SearchContext
}

// liveSessions holds at most one session per client: a new search replaces
// the client's previous entry, mirroring how the store supersedes sessions.
type liveSessions struct {
	mu       sync.Mutex
	byID     map[string]*liveSession
	byClient map[string]string
}

func newLiveSessions() *liveSessions {
	return &liveSessions{
		byID:     make(map[string]*liveSession),
		byClient: make(map[string]string),
	}
}

// add registers the context of a search just run for client.
func (l *liveSessions) add(client string, sc *discovery.SearchContext) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.track(client, sc.ID, &liveSession{sc: sc})
}

// get returns the entry for id, creating an empty one owned by client when
// none exists. Callers lock the entry and fill sc when it is nil.
func (l *liveSessions) get(client, id string) *liveSession {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ls, ok := l.byID[id]; ok {
		return ls
	}

	ls := &liveSession{}
	l.track(client, id, ls)

	return ls
}

// drop forgets id if it still maps to ls.
func (l *liveSessions) drop(id string, ls *liveSession) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.byID[id] == ls {
		delete(l.byID, id)
	}
}

func (l *liveSessions) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.byID)
}

func (l *liveSessions) track(client, id string, ls *liveSession) {
	if prev, ok := l.byClient[client]; ok && prev != id {
		delete(l.byID, prev)
	}

	l.byClient[client] = id
	l.byID[id] = ls
}
