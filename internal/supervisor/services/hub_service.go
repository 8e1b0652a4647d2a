// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package services

import (
	"context"
)

// ContextHub matches *realtime.Hub's Run method without importing the
// realtime package.
type ContextHub interface {
	Run(ctx context.Context) error
}

// HubService wraps the realtime hub as a supervised service. The hub's Run
// already follows the suture.Service pattern; this wrapper only names it
// for logging.
type HubService struct {
	hub  ContextHub
	name string
}

// NewHubService creates a hub service wrapper.
func NewHubService(hub ContextHub) *HubService {
	return &HubService{
		hub:  hub,
		name: "realtime-hub",
	}
}

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.Run(ctx)
}

// String implements fmt.Stringer for suture logging.
func (s *HubService) String() string {
	return s.name
}
