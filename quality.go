package deckgen

import (
	"context"
	"os"
	"strings"

	"github.com/deckgen-dev/deckgen/internal/chatapi"
	"github.com/deckgen-dev/deckgen/internal/imgutil"
)

// qualityMaxDim bounds the artifact dimension sent for evaluation.
const qualityMaxDim = 512

const qualityInstruction = "Review the attached image, which was generated for a presentation slide. " +
	"Reply with exactly PASS if it is usable, or FAIL: <short reason> if it is not. " +
	"Fail it for any of: deformed subjects or faces, garbled or illegible text, " +
	"broken or cropped layout, or content that does not match the request. " +
	"The requested content was: "

// evaluateArtifact asks the model to judge the artifact against the original
// prompt. The gate fails open: an unreachable or malformed judge never blocks
// the pipeline.
func (c *Client) evaluateArtifact(ctx context.Context, path, prompt string) QualityVerdict {
	uri, err := c.artifactDataURI(path)
	if err != nil {
		c.log.Warn("quality check unavailable", "path", path, "error", err)
		return QualityVerdict{Passed: true, Reason: "check unavailable"}
	}

	qCtx, cancel := context.WithTimeout(ctx, c.cfg.QualityTimeout)
	reply, err := c.api.Complete(qCtx, chatapi.PartsContent(
		chatapi.ImagePart(uri),
		chatapi.TextPart(qualityInstruction+prompt),
	))
	cancel()
	if err != nil {
		c.log.Warn("quality check unavailable", "path", path, "error", err)
		return QualityVerdict{Passed: true, Reason: "check unavailable"}
	}
	return parseVerdict(reply)
}

// parseVerdict expects the reply to start with PASS or FAIL: <reason>. Any
// other shape is treated as a pass so an unreliable judge cannot wedge a run.
func parseVerdict(reply string) QualityVerdict {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, "PASS") {
		return QualityVerdict{Passed: true}
	}
	if rest, ok := strings.CutPrefix(s, "FAIL:"); ok {
		return QualityVerdict{Passed: false, Reason: strings.TrimSpace(rest)}
	}
	return QualityVerdict{Passed: true}
}

// artifactDataURI loads the artifact and re-encodes it bounded to
// qualityMaxDim, keeping judge and refinement payloads small.
func (c *Client) artifactDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	img, err := imgutil.Decode(data)
	if err != nil {
		return "", err
	}
	bounded, err := imgutil.EncodePNG(imgutil.Flatten(imgutil.ResizeLongestSide(img, qualityMaxDim)))
	if err != nil {
		return "", err
	}
	return imgutil.PNGDataURI(bounded), nil
}
