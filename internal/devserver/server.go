package devserver

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/r9s-ai/devserve/internal/config"
	"github.com/r9s-ai/devserve/internal/lockfile"
	"github.com/r9s-ai/devserve/internal/pipeline"
	"github.com/r9s-ai/devserve/internal/resolve"
	"github.com/r9s-ai/devserve/internal/sfc"
	"github.com/r9s-ai/devserve/internal/static"
	"github.com/r9s-ai/devserve/internal/transform"
)

// Server holds the read-only state shared by all requests: the package
// store index and the stage chain built around it.
type Server struct {
	cfg      *config.Config
	index    *lockfile.Index
	resolver *resolve.Resolver
	chain    pipeline.Chain
}

// New loads the lock file (if any) and assembles the stage chain.
func New(cfg *config.Config) (*Server, error) {
	idx, err := lockfile.Load(cfg.LockFilePath())
	if err != nil {
		return nil, fmt.Errorf("load lock file: %w", err)
	}
	root := os.DirFS(cfg.Project.Root)
	public := os.DirFS(cfg.PublicPath())
	return NewWithFS(cfg, idx, root, public), nil
}

// NewWithFS assembles a server over explicit roots. idx may be nil.
func NewWithFS(cfg *config.Config, idx *lockfile.Index, root, public fs.FS) *Server {
	r := resolve.New(root, idx, resolve.Options{
		StoreDir:    cfg.Resolve.StoreDir,
		EntryFields: cfg.Resolve.EntryFields,
	})
	chain := pipeline.Chain{
		r.Stage(),
		static.New(root, public).Stage(),
		sfc.NewSplitter().Stage(),
		transform.NewImportRewriter(resolve.Prefix, cfg.Env.Mode).Stage(),
		transform.StyleStage(),
		transform.NewAssetInliner(cfg.Project.SourceSegment).Stage(),
	}
	return &Server{cfg: cfg, index: idx, resolver: r, chain: chain}
}

// Index is nil when the project has no lock file.
func (s *Server) Index() *lockfile.Index { return s.index }

func (s *Server) Resolver() *resolve.Resolver { return s.resolver }

func (s *Server) Chain() pipeline.Chain { return s.chain }
