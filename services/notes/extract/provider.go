package extract

import (
	"context"

	"github.com/voxnote/backend/services/notes/entity"
)

// Output is the normalized shape every provider adapter maps its vendor
// response into. Vendor field names never leak past the adapter.
type Output struct {
	KeyPoints  []string
	Topic      string
	Structured *entity.StructuredData
}

// Provider is an external text-understanding capability. Adapters fail with
// *entity.ProviderError on transport errors, non-2xx responses, or responses
// missing the expected fields; they never return partial results as success.
type Provider interface {
	Name() string
	Extract(ctx context.Context, tr entity.Transcript) (Output, error)
}
