package health

import (
	"context"
	"errors"

	"github.com/stagecue/stagecue/internal/character"
	"github.com/stagecue/stagecue/pkg/provider/llm"
	"github.com/stagecue/stagecue/pkg/types"
)

// StoreCheck reports whether the character store answers queries.
func StoreCheck(store character.Store) Checker {
	return Checker{
		Name: "store",
		Check: func(ctx context.Context) error {
			if store == nil {
				return errors.New("store not configured")
			}
			_, err := store.List(ctx, "")
			return err
		},
	}
}

// tokenProbe is a fixed message used to exercise the provider's local token
// accounting without issuing a completion.
var tokenProbe = []types.Message{{Role: types.RoleUser, Content: "ping"}}

// ProviderCheck reports whether the LLM provider is usable. It relies on
// token counting, which every provider implements locally, so the probe does
// not spend completion tokens.
func ProviderCheck(name string, p llm.Provider) Checker {
	return Checker{
		Name: name,
		Check: func(_ context.Context) error {
			if p == nil {
				return errors.New("provider not configured")
			}
			if _, err := p.CountTokens(tokenProbe); err != nil {
				return err
			}
			return nil
		},
	}
}
