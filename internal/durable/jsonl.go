package durable

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mesh-intelligence/loom/pkg/types"
)

// JSONL record kinds. Each exported line is a tagged envelope so one
// stream can carry all four record shapes.
const (
	kindEntityType   = "entity_type"
	kindRelationType = "relation_type"
	kindEntity       = "entity"
	kindRelationship = "relationship"
)

type jsonlLine struct {
	Kind   string          `json:"kind"`
	Record json.RawMessage `json:"record"`
}

// ExportJSONL streams the full contents of a namespace as one JSON
// object per line: registries first, then entities, then relationships,
// so an import can resolve references in a single pass.
func ExportJSONL(w io.Writer, p types.Provider, namespace string) (int, error) {
	snap, err := Dump(p, namespace)
	if err != nil {
		return 0, err
	}
	bw := bufio.NewWriter(w)
	count := 0
	write := func(kind string, record any) error {
		raw, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encoding %s record: %w", kind, err)
		}
		line, err := json.Marshal(jsonlLine{Kind: kind, Record: raw})
		if err != nil {
			return fmt.Errorf("encoding %s line: %w", kind, err)
		}
		if _, err := bw.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("writing %s line: %w", kind, err)
		}
		count++
		return nil
	}

	for _, et := range snap.EntityTypes {
		if err := write(kindEntityType, et); err != nil {
			return count, err
		}
	}
	for _, rt := range snap.RelationTypes {
		if err := write(kindRelationType, rt); err != nil {
			return count, err
		}
	}
	for _, e := range snap.Entities {
		if err := write(kindEntity, e); err != nil {
			return count, err
		}
	}
	for _, rel := range snap.Relationships {
		if err := write(kindRelationship, rel); err != nil {
			return count, err
		}
	}
	if err := bw.Flush(); err != nil {
		return count, fmt.Errorf("flushing export: %w", err)
	}
	return count, nil
}

// ImportJSONL reads tagged lines and writes each record verbatim through
// the Restorer. Blank and malformed lines are counted and skipped rather
// than aborting the import. Returns (imported, skipped).
func ImportJSONL(r io.Reader, p types.Provider) (int, int, error) {
	rest, ok := p.(types.Restorer)
	if !ok {
		return 0, 0, types.ErrRestoreUnsupported
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	imported, skipped := 0, 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry jsonlLine
		if err := json.Unmarshal(line, &entry); err != nil {
			skipped++
			continue
		}
		if err := importLine(rest, entry); err != nil {
			skipped++
			continue
		}
		imported++
	}
	if err := scanner.Err(); err != nil {
		return imported, skipped, fmt.Errorf("reading import stream: %w", err)
	}
	return imported, skipped, nil
}

func importLine(rest types.Restorer, entry jsonlLine) error {
	switch entry.Kind {
	case kindEntityType:
		var et types.EntityType
		if err := json.Unmarshal(entry.Record, &et); err != nil {
			return err
		}
		return rest.PutEntityType(&et)
	case kindRelationType:
		var rt types.RelationType
		if err := json.Unmarshal(entry.Record, &rt); err != nil {
			return err
		}
		return rest.PutRelationType(&rt)
	case kindEntity:
		var e types.Entity
		if err := json.Unmarshal(entry.Record, &e); err != nil {
			return err
		}
		return rest.PutEntity(&e)
	case kindRelationship:
		var rel types.Relationship
		if err := json.Unmarshal(entry.Record, &rel); err != nil {
			return err
		}
		return rest.PutRelationship(&rel)
	default:
		return fmt.Errorf("unknown record kind %q", entry.Kind)
	}
}
