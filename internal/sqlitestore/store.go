package sqlitestore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"casegraph/internal/graph"
)

// Store implements graph.Store on SQLite.
type Store struct {
	db *DB
}

// NewStore creates a store over an opened database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// SubmitGraph writes the entity and association bundles in one
// transaction, generating a record id per submitted entity and resolving
// index-based edge endpoints against this write's own entities.
func (s *Store) SubmitGraph(ctx context.Context, entities graph.EntityBundle, associations graph.AssociationBundle) (*graph.WriteResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin graph write: %w", err)
	}
	defer tx.Rollback()

	generated := make(map[graph.CollectionID][]graph.RecordID, len(entities))
	for _, coll := range sortedCollections(entities) {
		for _, raw := range entities[coll] {
			id := graph.RecordID(uuid.NewString())
			if err := insertRecord(ctx, tx, coll, id, raw); err != nil {
				return nil, err
			}
			generated[coll] = append(generated[coll], id)
		}
	}

	for assocColl, specs := range associations {
		for _, spec := range specs {
			srcID, err := resolveEndpoint(spec.Src, generated)
			if err != nil {
				return nil, err
			}
			dstID, err := resolveEndpoint(spec.Dst, generated)
			if err != nil {
				return nil, err
			}
			edgeID := graph.RecordID(uuid.NewString())
			if err := insertRecord(ctx, tx, assocColl, edgeID, spec.Data); err != nil {
				return nil, err
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO edges (collection_id, record_id, src_collection_id, src_record_id, dst_collection_id, dst_record_id)
				VALUES (?, ?, ?, ?, ?, ?)`,
				assocColl, edgeID, spec.Src.Collection, srcID, spec.Dst.Collection, dstID,
			)
			if err != nil {
				return nil, fmt.Errorf("insert edge: %w", err)
			}
			generated[assocColl] = append(generated[assocColl], edgeID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit graph write: %w", err)
	}
	return &graph.WriteResult{GeneratedIDs: generated}, nil
}

// SubmitPartialReplace overwrites only the named properties of existing
// records.
func (s *Store) SubmitPartialReplace(ctx context.Context, entities graph.ReplaceBundle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin partial replace: %w", err)
	}
	defer tx.Rollback()

	for coll, byRecord := range entities {
		for id, raw := range byRecord {
			var exists int
			err := tx.QueryRowContext(ctx,
				`SELECT COUNT(1) FROM records WHERE collection_id = ? AND record_id = ?`,
				coll, id,
			).Scan(&exists)
			if err != nil {
				return fmt.Errorf("check record: %w", err)
			}
			if exists == 0 {
				return fmt.Errorf("partial replace %s/%s: %w", coll, id, graph.ErrRecordNotFound)
			}
			for prop, values := range raw {
				_, err := tx.ExecContext(ctx,
					`DELETE FROM record_values WHERE collection_id = ? AND record_id = ? AND property_id = ?`,
					coll, id, prop,
				)
				if err != nil {
					return fmt.Errorf("clear property: %w", err)
				}
				if err := insertValues(ctx, tx, coll, id, prop, values); err != nil {
					return err
				}
			}
		}
	}
	return tx.Commit()
}

// DeleteRecords removes the named records and their values. Edges whose
// endpoints are removed stay behind dangling; only deleting an edge's own
// record removes it from the edge table.
func (s *Store) DeleteRecords(ctx context.Context, specs []graph.DeletionSpec) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	for _, spec := range specs {
		for _, id := range spec.RecordIDs {
			for _, stmt := range []string{
				`DELETE FROM records WHERE collection_id = ? AND record_id = ?`,
				`DELETE FROM record_values WHERE collection_id = ? AND record_id = ?`,
				`DELETE FROM edges WHERE collection_id = ? AND record_id = ?`,
			} {
				if _, err := tx.ExecContext(ctx, stmt, spec.Collection, id); err != nil {
					return fmt.Errorf("delete record: %w", err)
				}
			}
		}
	}
	return tx.Commit()
}

// QueryNeighbors searches edges leaving the source records (destination
// filter) and arriving at them (source filter), returning the connected
// record and edge payloads.
func (s *Store) QueryNeighbors(ctx context.Context, source graph.CollectionID, filter graph.NeighborFilter) (graph.NeighborMap, error) {
	result := graph.NeighborMap{}
	if len(filter.RecordIDs) == 0 {
		return result, nil
	}

	if len(filter.DstCollections) > 0 {
		query := fmt.Sprintf(`
			SELECT collection_id, record_id, src_record_id, dst_collection_id, dst_record_id
			FROM edges
			WHERE src_collection_id = ? AND src_record_id IN (%s) AND dst_collection_id IN (%s)`,
			placeholders(len(filter.RecordIDs)), placeholders(len(filter.DstCollections)))
		args := []any{source}
		for _, id := range filter.RecordIDs {
			args = append(args, id)
		}
		for _, coll := range filter.DstCollections {
			args = append(args, coll)
		}
		if err := s.collectNeighbors(ctx, result, query, args, false); err != nil {
			return nil, err
		}
	}

	if len(filter.SrcCollections) > 0 {
		query := fmt.Sprintf(`
			SELECT collection_id, record_id, dst_record_id, src_collection_id, src_record_id
			FROM edges
			WHERE dst_collection_id = ? AND dst_record_id IN (%s) AND src_collection_id IN (%s)`,
			placeholders(len(filter.RecordIDs)), placeholders(len(filter.SrcCollections)))
		args := []any{source}
		for _, id := range filter.RecordIDs {
			args = append(args, id)
		}
		for _, coll := range filter.SrcCollections {
			args = append(args, coll)
		}
		if err := s.collectNeighbors(ctx, result, query, args, true); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (s *Store) collectNeighbors(ctx context.Context, result graph.NeighborMap, query string, args []any, incoming bool) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("neighbor search: %w", err)
	}
	defer rows.Close()

	type hit struct {
		edgeColl     graph.CollectionID
		edgeID       graph.RecordID
		sourceID     graph.RecordID
		neighborColl graph.CollectionID
		neighborID   graph.RecordID
	}
	var hits []hit
	for rows.Next() {
		var h hit
		if err := rows.Scan(&h.edgeColl, &h.edgeID, &h.sourceID, &h.neighborColl, &h.neighborID); err != nil {
			return fmt.Errorf("scan edge: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("neighbor search: %w", err)
	}

	for _, h := range hits {
		neighbor, err := s.loadValues(ctx, h.neighborColl, h.neighborID)
		if err != nil {
			return err
		}
		edge, err := s.loadValues(ctx, h.edgeColl, h.edgeID)
		if err != nil {
			return err
		}
		result[h.sourceID] = append(result[h.sourceID], graph.NeighborEnvelope{
			NeighborCollection: h.neighborColl,
			NeighborID:         h.neighborID,
			Neighbor:           neighbor,
			EdgeCollection:     h.edgeColl,
			EdgeID:             h.edgeID,
			Edge:               edge,
		})
	}
	return nil
}

// GetRecord fetches one record's full payload.
func (s *Store) GetRecord(ctx context.Context, collection graph.CollectionID, id graph.RecordID) (graph.RawRecord, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM records WHERE collection_id = ? AND record_id = ?`,
		collection, id,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check record: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, graph.ErrRecordNotFound)
	}
	return s.loadValues(ctx, collection, id)
}

func (s *Store) loadValues(ctx context.Context, collection graph.CollectionID, id graph.RecordID) (graph.RawRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT property_id, value FROM record_values
		WHERE collection_id = ? AND record_id = ?
		ORDER BY property_id, idx`,
		collection, id,
	)
	if err != nil {
		return nil, fmt.Errorf("load values: %w", err)
	}
	defer rows.Close()

	raw := graph.RawRecord{}
	for rows.Next() {
		var prop graph.PropertyID
		var encoded string
		if err := rows.Scan(&prop, &encoded); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		var value any
		if err := json.Unmarshal([]byte(encoded), &value); err != nil {
			return nil, fmt.Errorf("decode value: %w", err)
		}
		raw[prop] = append(raw[prop], value)
	}
	return raw, rows.Err()
}

// AddAPIKey registers a bearer token for an organization.
func (s *Store) AddAPIKey(ctx context.Context, token, organizationID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, organization_id) VALUES (?, ?)`,
		hashToken(token), organizationID,
	)
	return err
}

// ResolveOrganization maps a bearer token to its organization id.
func (s *Store) ResolveOrganization(ctx context.Context, token string) (string, error) {
	var orgID string
	err := s.db.QueryRowContext(ctx,
		`SELECT organization_id FROM api_keys WHERE key_hash = ?`,
		hashToken(token),
	).Scan(&orgID)
	if err != nil || orgID == "" {
		return "", fmt.Errorf("unauthorized: invalid token")
	}
	return orgID, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func insertRecord(ctx context.Context, tx *sql.Tx, coll graph.CollectionID, id graph.RecordID, raw graph.RawRecord) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO records (collection_id, record_id) VALUES (?, ?)`,
		coll, id,
	); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	for prop, values := range raw {
		if err := insertValues(ctx, tx, coll, id, prop, values); err != nil {
			return err
		}
	}
	return nil
}

func insertValues(ctx context.Context, tx *sql.Tx, coll graph.CollectionID, id graph.RecordID, prop graph.PropertyID, values []any) error {
	for i, value := range values {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode value: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO record_values (collection_id, record_id, property_id, idx, value)
			VALUES (?, ?, ?, ?, ?)`,
			coll, id, prop, i, string(encoded),
		); err != nil {
			return fmt.Errorf("insert value: %w", err)
		}
	}
	return nil
}

func resolveEndpoint(ref graph.EndpointRef, generated map[graph.CollectionID][]graph.RecordID) (graph.RecordID, error) {
	if ref.Index != nil {
		ids := generated[ref.Collection]
		if *ref.Index < 0 || *ref.Index >= len(ids) {
			return "", fmt.Errorf("association endpoint index %d out of range for collection %s", *ref.Index, ref.Collection)
		}
		return ids[*ref.Index], nil
	}
	if ref.RecordID == "" {
		return "", fmt.Errorf("association endpoint for collection %s has neither record id nor index", ref.Collection)
	}
	return ref.RecordID, nil
}

// sortedCollections gives the entity bundle a stable write order so
// generated-id ordering is deterministic across identical submissions.
func sortedCollections(entities graph.EntityBundle) []graph.CollectionID {
	colls := make([]graph.CollectionID, 0, len(entities))
	for coll := range entities {
		colls = append(colls, coll)
	}
	sort.Slice(colls, func(i, j int) bool { return colls[i] < colls[j] })
	return colls
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
