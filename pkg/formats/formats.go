// Package formats assembles the built-in decoders into a registry.
package formats

import (
	"sync"

	"github.com/samcharles93/spmio/pkg/formats/ape"
	"github.com/samcharles93/spmio/pkg/formats/bcr"
	"github.com/samcharles93/spmio/pkg/formats/burleigh"
	"github.com/samcharles93/spmio/pkg/formats/hitachi"
	"github.com/samcharles93/spmio/pkg/formats/nanotop"
	"github.com/samcharles93/spmio/pkg/formats/stp"
	"github.com/samcharles93/spmio/pkg/spm"
)

// All returns the built-in formats in registration order. Earlier entries win
// detection ties.
func All() []spm.Format {
	return []spm.Format{
		ape.New(),
		bcr.New(),
		nanotop.New(),
		hitachi.New(),
		hitachi.NewOld(),
		stp.New(),
		burleigh.New(),
	}
}

var Default = sync.OnceValue(func() *spm.Registry {
	return spm.NewRegistry(All()...)
})
