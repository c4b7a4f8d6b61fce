package transform

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/r9s-ai/devserve/internal/pipeline"
)

// DefaultSourceSegment gates asset inlining to the project's sources.
const DefaultSourceSegment = "/src/"

// AssetInliner turns images imported from source directories into modules
// exporting a data URI. Images elsewhere (public/) are served as-is.
type AssetInliner struct {
	segment string
}

// NewAssetInliner returns an inliner for paths containing segment.
func NewAssetInliner(segment string) *AssetInliner {
	if strings.TrimSpace(segment) == "" {
		segment = DefaultSourceSegment
	}
	return &AssetInliner{segment: segment}
}

// InlineAsset renders the module for an asset of the given MIME type.
func InlineAsset(mimeType string, data []byte) string {
	return fmt.Sprintf(`export default "data:%s;base64,%s"`, mimeType, base64.StdEncoding.EncodeToString(data))
}

// Stage is the last stage of the chain.
func (a *AssetInliner) Stage() pipeline.Stage {
	return pipeline.StageFunc{StageName: "asset", Fn: a.apply}
}

func (a *AssetInliner) apply(_ context.Context, req *pipeline.Request) error {
	if !pipeline.IsImage(req.Type) || !strings.Contains(req.Path, a.segment) {
		return nil
	}
	data, err := req.Body.Bytes()
	if err != nil {
		return fmt.Errorf("read %s: %w", req.Path, err)
	}
	req.SetText(pipeline.MIMEJavaScript, InlineAsset(req.Type, data))
	return nil
}
