package gen

import (
	"github.com/google/uuid"
)

type IDGenerator func() string

func UUID() IDGenerator {
	return func() string {
		return uuid.NewString()
	}
}

func (g IDGenerator) Next() string {
	if g == nil {
		return uuid.Nil.String()
	}

	return g()
}
