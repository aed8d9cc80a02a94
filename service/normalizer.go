package service

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/OmarAdel911/introtosoftwareapp-sub001/config"
	"github.com/OmarAdel911/introtosoftwareapp-sub001/model"
)

// defaultDescription is attached when a legacy record stored only a bare
// file URL with no author text.
const defaultDescription = "Submitted work"

// SubmissionNormalizer turns the historical submission payload shapes into
// the canonical model.Submission. Over time the web client persisted
// submissions as bare URL strings, JSON-encoded strings, nested objects,
// and raw asset-storage descriptors; this keeps all of them readable.
//
// Normalize is pure and idempotent: it never mutates its input and feeding
// its own output back in yields an equal value.
type SubmissionNormalizer struct {
	assetHost       string
	fallbackVersion string
}

func NewSubmissionNormalizer(cfg *config.AssetConfig) *SubmissionNormalizer {
	return &SubmissionNormalizer{
		assetHost:       cfg.Host,
		fallbackVersion: cfg.FallbackVersion,
	}
}

// Normalize resolves a raw stored submission value. It returns nil when no
// submission exists or the value is unreadable; unreadable payloads are
// logged and absorbed, never propagated as errors.
func (n *SubmissionNormalizer) Normalize(raw any) *model.Submission {
	switch v := raw.(type) {
	case nil:
		return nil
	case *model.Submission:
		if v == nil {
			return nil
		}
		out := *v
		return &out
	case model.Submission:
		out := v
		return &out
	case string:
		if v == "" {
			return nil
		}
		if strings.HasPrefix(v, "http") {
			return &model.Submission{Description: defaultDescription, FileURL: v}
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(v), &obj); err != nil {
			slog.Warn("submission payload is neither a URL nor valid JSON", "error", err)
			return nil
		}
		return n.fromObject(obj)
	case map[string]any:
		return n.fromObject(v)
	default:
		slog.Warn("submission payload has unsupported type", "type", fmt.Sprintf("%T", raw))
		return nil
	}
}

func (n *SubmissionNormalizer) fromObject(obj map[string]any) *model.Submission {
	sub := &model.Submission{}
	if d, ok := obj["description"].(string); ok {
		sub.Description = d
	}

	switch fv := obj["fileUrl"].(type) {
	case string:
		sub.FileURL = fv
	case map[string]any:
		sub.FileURL = n.resolveAssetRef(fv)
	case nil:
		// No file attached.
	default:
		slog.Warn("submission fileUrl has unexpected type", "type", fmt.Sprintf("%T", fv))
	}
	return sub
}

// assetRef mirrors the descriptor shapes the old asset-storage integration
// leaked to clients. Exactly one variant is expected to be populated;
// resolveAssetRef tries them in fixed precedence order.
type assetRef struct {
	URL       string `json:"url"`
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Format    string `json:"format"`
	Version   any    `json:"version"`
	AssetID   string `json:"asset_id"`
}

func (n *SubmissionNormalizer) resolveAssetRef(obj map[string]any) string {
	data, err := json.Marshal(obj)
	if err == nil {
		var ref assetRef
		if err := json.Unmarshal(data, &ref); err == nil {
			switch {
			case ref.URL != "":
				return ref.URL
			case ref.SecureURL != "":
				return ref.SecureURL
			case ref.PublicID != "":
				url := fmt.Sprintf("https://%s/%s/%s", n.assetHost, n.versionSegment(ref.Version), ref.PublicID)
				if ref.Format != "" {
					url += "." + ref.Format
				}
				return url
			case ref.AssetID != "":
				return fmt.Sprintf("https://%s/%s/%s", n.assetHost, n.versionSegment(ref.Version), ref.AssetID)
			}
		}
	}

	// Unknown shape: salvage the first value that looks like a URL. Keys
	// are sorted so the pick is deterministic.
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.HasPrefix(s, "http") {
			return s
		}
	}

	// Degenerate last resort: stringify the whole object so the record at
	// least stays inspectable.
	slog.Warn("submission fileUrl has unknown shape, stringifying", "keys", keys)
	if data != nil {
		return string(data)
	}
	return fmt.Sprintf("%v", obj)
}

func (n *SubmissionNormalizer) versionSegment(v any) string {
	switch ver := v.(type) {
	case string:
		if ver == "" {
			break
		}
		if strings.HasPrefix(ver, "v") {
			return ver
		}
		return "v" + ver
	case float64:
		return fmt.Sprintf("v%.0f", ver)
	case json.Number:
		return "v" + ver.String()
	}
	return n.fallbackVersion
}
