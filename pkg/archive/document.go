package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

// documentCandidates are the names the workflow document has shipped under, in priority order
var documentCandidates = []string{"zapfile.json", "zaps.json", "config.json"}

// locateDocument returns the entry holding the workflow document
func locateDocument(entries []string) (string, bool) {
	for _, candidate := range documentCandidates {
		for _, entry := range entries {
			if skipEntry(entry) {
				continue
			}
			if strings.EqualFold(path.Base(entry), candidate) {
				return entry, true
			}
		}
	}
	return "", false
}

func skipEntry(entry string) bool {
	return strings.HasPrefix(entry, "__MACOSX/") || strings.HasSuffix(entry, "/")
}

// DecodeDocument parses a workflow document of any known generation
func DecodeDocument(data []byte) (*models.WorkflowExport, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty workflow document", ErrMalformedArchive)
	}

	export := &models.WorkflowExport{}
	var zapsRaw json.RawMessage

	if trimmed[0] == '[' {
		zapsRaw = trimmed
	} else {
		var root object
		if err := json.Unmarshal(trimmed, &root); err != nil {
			return nil, fmt.Errorf("%w: invalid workflow document: %v", ErrMalformedArchive, err)
		}
		raw, _, ok := rootFields.lookup(root, "zaps")
		if !ok {
			return nil, fmt.Errorf("%w: workflow document has no zaps", ErrMalformedArchive)
		}
		zapsRaw = raw
		export.SchemaVersion = documentVersion(root)
	}

	items, err := elements(zapsRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: zaps: %v", ErrMalformedArchive, err)
	}

	export.Automations = make([]models.Automation, 0, len(items))
	for i, item := range items {
		zap, generation, err := decodeAutomation(item.raw)
		if err != nil {
			return nil, fmt.Errorf("%w: zap[%d]: %v", ErrMalformedArchive, i, err)
		}
		if export.Generation == "" {
			export.Generation = generation
		}
		export.Automations = append(export.Automations, zap)
	}

	return export, nil
}

func documentVersion(root object) string {
	if raw, ok := root["metadata"]; ok && !isNull(raw) {
		var meta object
		if err := json.Unmarshal(raw, &meta); err == nil {
			if v, _, ok := rootFields.lookup(meta, "version"); ok {
				return decodeString(v)
			}
		}
	}
	if v, _, ok := rootFields.lookup(root, "version"); ok {
		return decodeString(v)
	}
	return ""
}

func decodeAutomation(raw json.RawMessage) (models.Automation, string, error) {
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return models.Automation{}, "", err
	}

	idRaw, _, ok := zapFields.lookup(obj, "id")
	if !ok {
		return models.Automation{}, "", fmt.Errorf("missing id")
	}
	id, ok, err := decodeID(idRaw)
	if err != nil {
		return models.Automation{}, "", fmt.Errorf("id: %w", err)
	}
	if !ok {
		return models.Automation{}, "", fmt.Errorf("missing id")
	}

	statusRaw, _, ok := zapFields.lookup(obj, "status")
	if !ok {
		return models.Automation{}, "", fmt.Errorf("zap %s: missing status", id)
	}
	status := strings.TrimSpace(decodeString(statusRaw))

	zap := models.Automation{
		ID:      id,
		Status:  status,
		Enabled: models.EnabledStatus(status),
	}
	if titleRaw, _, ok := zapFields.lookup(obj, "title"); ok {
		zap.Title = decodeString(titleRaw)
	}

	stepsRaw, alias, ok := zapFields.lookup(obj, "steps")
	if !ok {
		return zap, "", nil
	}
	nodes, err := elements(stepsRaw)
	if err != nil {
		return models.Automation{}, "", fmt.Errorf("zap %s: %s: %w", id, alias, err)
	}

	zap.Steps = make([]models.Step, 0, len(nodes))
	for i, node := range nodes {
		step, err := decodeStep(node)
		if err != nil {
			return models.Automation{}, "", fmt.Errorf("zap %s: step[%d]: %w", id, i, err)
		}
		if step.ID == "" {
			step.ID = fmt.Sprintf("%s#%d", id, i)
		}
		zap.Steps = append(zap.Steps, step)
	}

	return zap, generations[alias], nil
}

func decodeStep(node keyedRaw) (models.Step, error) {
	var obj object
	if err := json.Unmarshal(node.raw, &obj); err != nil {
		return models.Step{}, err
	}

	step := models.Step{ID: node.key, Role: models.RoleAction}
	if raw, _, ok := stepFields.lookup(obj, "id"); ok {
		id, ok, err := decodeID(raw)
		if err != nil {
			return models.Step{}, fmt.Errorf("id: %w", err)
		}
		if ok {
			step.ID = id
		}
	}
	if raw, _, ok := stepFields.lookup(obj, "parent"); ok {
		parent, ok, err := decodeID(raw)
		if err != nil {
			return models.Step{}, fmt.Errorf("parent: %w", err)
		}
		if ok {
			step.ParentID = &parent
		}
	}
	if raw, _, ok := stepFields.lookup(obj, "type"); ok {
		step.TypeOf = strings.ToLower(decodeString(raw))
	}
	if raw, _, ok := stepFields.lookup(obj, "app"); ok {
		step.App = decodeString(raw)
	}
	if raw, _, ok := stepFields.lookup(obj, "action"); ok {
		step.Action = decodeString(raw)
	}
	if raw, _, ok := stepFields.lookup(obj, "title"); ok {
		step.Title = decodeString(raw)
	}
	if raw, _, ok := stepFields.lookup(obj, "paused"); ok {
		step.Paused = decodeBool(raw)
	}

	step.Kind = Classify(step)
	return step, nil
}
