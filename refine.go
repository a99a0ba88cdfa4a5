package deckgen

import (
	"context"

	"github.com/deckgen-dev/deckgen/internal/chatapi"
	"github.com/deckgen-dev/deckgen/internal/locator"
	"github.com/deckgen-dev/deckgen/internal/refsheet"
)

// refineArtifact runs the bounded check/refine state machine after a
// successful generation. Each round evaluates the current artifact and, on a
// failing verdict, submits it with the failure reason for a corrected
// regeneration. The loop ends on a pass, a failed refinement, or an exhausted
// round budget; the output path always keeps the best artifact produced so
// far. Returns the number of refinement rounds performed.
func (c *Client) refineArtifact(ctx context.Context, req GenerationRequest, sheet *refsheet.Sheet, prompt string) int {
	maxRefine := req.MaxRefine
	if maxRefine <= 0 {
		maxRefine = DefaultMaxRefine
	}

	rounds := 0
	for rounds < maxRefine {
		verdict := c.evaluateArtifact(ctx, req.OutputPath, prompt)
		if verdict.Passed {
			break
		}
		c.log.Info("quality check failed, refining",
			"path", req.OutputPath, "round", rounds+1, "reason", verdict.Reason)
		rounds++
		if !c.refineOnce(ctx, req, sheet, prompt, verdict.Reason) {
			// Accept the degraded artifact rather than loop forever.
			c.log.Warn("refinement failed, keeping last artifact", "path", req.OutputPath)
			break
		}
	}
	return rounds
}

// refineOnce sends a single regeneration request embedding the original
// reference sheet (if any), the current flawed artifact, and the failure
// reason. One shot per round, no inner retry; success overwrites the artifact
// in place.
func (c *Client) refineOnce(ctx context.Context, req GenerationRequest, sheet *refsheet.Sheet, prompt, reason string) bool {
	var parts []chatapi.Part
	if sheet != nil {
		if uri, err := sheet.DataURI(); err == nil {
			parts = append(parts, chatapi.ImagePart(uri))
		}
	}
	artifactURI, err := c.artifactDataURI(req.OutputPath)
	if err != nil {
		return false
	}
	parts = append(parts,
		chatapi.ImagePart(artifactURI),
		chatapi.TextPart("The attached image was rejected for this reason: "+reason+
			". Regenerate it with the problem fixed. Original request: "+prompt),
	)

	sendCtx, cancel := context.WithTimeout(ctx, c.cfg.SendTimeout)
	reply, err := c.api.Complete(sendCtx, chatapi.PartsContent(parts...))
	cancel()
	if err != nil {
		return false
	}

	loc, ok := locator.Extract(reply)
	if !ok {
		return false
	}

	dlCtx, cancel := context.WithTimeout(ctx, c.cfg.DownloadTimeout)
	data, err := c.api.Fetch(dlCtx, loc)
	cancel()
	if err != nil || len(data) <= MinArtifactSize {
		return false
	}

	if err := writeArtifact(req.OutputPath, data, req.NormalizeMaxSize); err != nil {
		return false
	}
	return true
}
