package ui

import (
	"context"

	"whatsreply/internal/types"
)

// Suggester is satisfied by *suggest.Client.
type Suggester interface {
	RequestSuggestions(ctx context.Context, req types.SuggestionRequest) ([]types.Suggestion, error)
}

// Clipboard is the OS clipboard.
type Clipboard interface {
	WriteText(ctx context.Context, s string) error
	ReadText(ctx context.Context) (string, error)
}

// URLLauncher hands a URI to another application.
type URLLauncher interface {
	CanOpen(ctx context.Context, uri string) bool
	Open(ctx context.Context, uri string) error
}
