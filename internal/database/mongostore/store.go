// Package mongostore implements the punishment store on MongoDB. A single
// long-lived client serves all operations; collections mirror the relational
// tables and carry equivalent secondary indexes.
//
// Identifiers are allocated from a counters collection (atomic $inc with
// upsert) rather than derived from ObjectID hashes, so every entity gets a
// stable, collision-free int64 id that satisfies the same contract as the
// relational backends.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"tangled.org/briar.gg/briar/internal/punishment"
)

const databaseName = "briar"

// Store implements punishment.Store using MongoDB collections.
type Store struct {
	client      *mongo.Client
	punishments *mongo.Collection
	auditLog    *mongo.Collection
	evidence    *mongo.Collection
	counters    *mongo.Collection
	now         func() time.Time
}

var _ punishment.Store = (*Store)(nil)

// Open connects to MongoDB and verifies the server is reachable.
func Open(ctx context.Context, uri string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(databaseName)
	return &Store{
		client:      client,
		punishments: db.Collection("punishments"),
		auditLog:    db.Collection("audit_log"),
		evidence:    db.Collection("evidence"),
		counters:    db.Collection("counters"),
		now:         time.Now,
	}, nil
}

// Init creates the secondary indexes. Mongo needs no table creation, and
// index creation is idempotent.
func (s *Store) Init(ctx context.Context) error {
	indexes := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{s.punishments, []mongo.IndexModel{
			{Keys: bson.D{{Key: "player_id", Value: 1}, {Key: "type", Value: 1}}},
			{Keys: bson.D{{Key: "expiration", Value: 1}}},
			{Keys: bson.D{{Key: "issued_at", Value: -1}}},
		}},
		{s.auditLog, []mongo.IndexModel{
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "target", Value: 1}}},
		}},
		{s.evidence, []mongo.IndexModel{
			{Keys: bson.D{{Key: "punishment_id", Value: 1}}},
		}},
	}
	for _, ix := range indexes {
		if _, err := ix.coll.Indexes().CreateMany(ctx, ix.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", ix.coll.Name(), err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// nextID atomically allocates the next id in the named sequence.
func (s *Store) nextID(ctx context.Context, sequence string) (int64, error) {
	res := s.counters.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: sequence}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After))
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	if err := res.Decode(&doc); err != nil {
		return 0, fmt.Errorf("allocate %s id: %w", sequence, err)
	}
	return doc.Seq, nil
}

type punishmentDoc struct {
	ID         int64  `bson:"_id"`
	PlayerID   string `bson:"player_id"`
	Type       string `bson:"type"`
	Reason     string `bson:"reason,omitempty"`
	Expiration *int64 `bson:"expiration"`
	Issuer     string `bson:"issuer"`
	IssuedAt   int64  `bson:"issued_at"`
}

func docToPunishment(doc punishmentDoc) (punishment.Punishment, error) {
	playerID, err := uuid.Parse(doc.PlayerID)
	if err != nil {
		return punishment.Punishment{}, fmt.Errorf("malformed player id %q: %w", doc.PlayerID, err)
	}
	return punishment.Punishment{
		ID:         doc.ID,
		PlayerID:   playerID,
		Type:       punishment.Type(doc.Type),
		Reason:     doc.Reason,
		Expiration: doc.Expiration,
		Issuer:     doc.Issuer,
		IssuedAt:   doc.IssuedAt,
	}, nil
}

// activeFilter matches punishments in force at the given instant: no
// expiration stored, or an expiration still in the future.
func activeFilter(nowMillis int64) bson.D {
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "expiration", Value: nil}},
		bson.D{{Key: "expiration", Value: bson.D{{Key: "$gt", Value: nowMillis}}}},
	}}}
}

func (s *Store) AddPunishment(ctx context.Context, p punishment.Punishment) (int64, error) {
	id, err := s.nextID(ctx, "punishments")
	if err != nil {
		return 0, err
	}
	_, err = s.punishments.InsertOne(ctx, punishmentDoc{
		ID:         id,
		PlayerID:   p.PlayerID.String(),
		Type:       string(p.Type),
		Reason:     p.Reason,
		Expiration: p.Expiration,
		Issuer:     p.Issuer,
		IssuedAt:   p.IssuedAt,
	})
	if err != nil {
		return 0, fmt.Errorf("add punishment: %w", err)
	}
	return id, nil
}

func (s *Store) RemovePunishment(ctx context.Context, playerID uuid.UUID, t punishment.Type) (bool, error) {
	filter := bson.D{
		{Key: "player_id", Value: playerID.String()},
		{Key: "type", Value: string(t)},
	}
	filter = append(filter, activeFilter(s.now().UnixMilli())...)
	res, err := s.punishments.DeleteMany(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("remove punishment: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) GetActivePunishment(ctx context.Context, playerID uuid.UUID, t punishment.Type) (*punishment.Punishment, error) {
	filter := bson.D{
		{Key: "player_id", Value: playerID.String()},
		{Key: "type", Value: string(t)},
	}
	filter = append(filter, activeFilter(s.now().UnixMilli())...)

	var doc punishmentDoc
	err := s.punishments.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active punishment: %w", err)
	}
	p, err := docToPunishment(doc)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetPunishment(ctx context.Context, id int64) (*punishment.Punishment, error) {
	var doc punishmentDoc
	err := s.punishments.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get punishment: %w", err)
	}
	p, err := docToPunishment(doc)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CleanExpiredPunishments(ctx context.Context) (int64, error) {
	res, err := s.punishments.DeleteMany(ctx, bson.D{
		{Key: "expiration", Value: bson.D{
			{Key: "$ne", Value: nil},
			{Key: "$lte", Value: s.now().UnixMilli()},
		}},
	})
	if err != nil {
		return 0, fmt.Errorf("clean expired punishments: %w", err)
	}
	return res.DeletedCount, nil
}

// RollbackPunishments reads then deletes with the same filter. Mongo offers
// no snapshot isolation across the two steps on a standalone server, so a
// punishment inserted by the same moderator between the find and the delete
// can be removed without appearing in the returned list. That residual
// anomaly is accepted; see DESIGN.md.
func (s *Store) RollbackPunishments(ctx context.Context, moderator string, since int64, t *punishment.Type) ([]punishment.Punishment, error) {
	filter := bson.D{
		{Key: "issuer", Value: moderator},
		{Key: "issued_at", Value: bson.D{{Key: "$gte", Value: since}}},
	}
	if t != nil {
		filter = append(filter, bson.E{Key: "type", Value: string(*t)})
	}

	cursor, err := s.punishments.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("rollback punishments: find: %w", err)
	}
	var docs []punishmentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("rollback punishments: decode: %w", err)
	}

	if _, err := s.punishments.DeleteMany(ctx, filter); err != nil {
		return nil, fmt.Errorf("rollback punishments: delete: %w", err)
	}

	punishments := make([]punishment.Punishment, 0, len(docs))
	for _, doc := range docs {
		p, err := docToPunishment(doc)
		if err != nil {
			continue
		}
		punishments = append(punishments, p)
	}
	return punishments, nil
}

type evidenceDoc struct {
	ID           int64  `bson:"_id"`
	PunishmentID int64  `bson:"punishment_id"`
	Evidence     string `bson:"evidence"`
}

func (s *Store) AddEvidence(ctx context.Context, punishmentID int64, content string) (bool, error) {
	id, err := s.nextID(ctx, "evidence")
	if err != nil {
		return false, err
	}
	_, err = s.evidence.InsertOne(ctx, evidenceDoc{
		ID:           id,
		PunishmentID: punishmentID,
		Evidence:     content,
	})
	if err != nil {
		return false, fmt.Errorf("add evidence: %w", err)
	}
	return true, nil
}

func (s *Store) RemoveEvidence(ctx context.Context, punishmentID, evidenceID int64) (bool, error) {
	res, err := s.evidence.DeleteOne(ctx, bson.D{
		{Key: "_id", Value: evidenceID},
		{Key: "punishment_id", Value: punishmentID},
	})
	if err != nil {
		return false, fmt.Errorf("remove evidence: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) GetEvidenceForPunishment(ctx context.Context, punishmentID int64) ([]punishment.Evidence, error) {
	cursor, err := s.evidence.Find(ctx, bson.D{{Key: "punishment_id", Value: punishmentID}})
	if err != nil {
		return nil, fmt.Errorf("get evidence: %w", err)
	}
	var docs []evidenceDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("get evidence: decode: %w", err)
	}

	out := make([]punishment.Evidence, 0, len(docs))
	for _, doc := range docs {
		out = append(out, punishment.Evidence{
			ID:           doc.ID,
			PunishmentID: doc.PunishmentID,
			Content:      doc.Evidence,
		})
	}
	return out, nil
}

type auditDoc struct {
	ID        int64                   `bson:"_id"`
	Action    string                  `bson:"action"`
	Moderator string                  `bson:"moderator"`
	Target    string                  `bson:"target"`
	Details   punishment.AuditDetails `bson:"details"`
	Timestamp int64                   `bson:"timestamp"`
}

func docToAuditEntry(doc auditDoc) punishment.AuditEntry {
	return punishment.AuditEntry{
		ID:        doc.ID,
		Action:    doc.Action,
		Moderator: doc.Moderator,
		Target:    doc.Target,
		Details:   doc.Details,
		Timestamp: doc.Timestamp,
	}
}

func (s *Store) AddAuditEntry(ctx context.Context, entry punishment.AuditEntry) (bool, error) {
	id, err := s.nextID(ctx, "audit_log")
	if err != nil {
		return false, err
	}
	_, err = s.auditLog.InsertOne(ctx, auditDoc{
		ID:        id,
		Action:    entry.Action,
		Moderator: entry.Moderator,
		Target:    entry.Target,
		Details:   entry.Details,
		Timestamp: entry.Timestamp,
	})
	if err != nil {
		return false, fmt.Errorf("add audit entry: %w", err)
	}
	return true, nil
}

func (s *Store) GetAuditLog(ctx context.Context, limit, offset int) ([]punishment.AuditEntry, error) {
	return s.listAuditLog(ctx, bson.D{}, limit, offset)
}

func (s *Store) GetAuditLogForPlayer(ctx context.Context, target string, limit, offset int) ([]punishment.AuditEntry, error) {
	return s.listAuditLog(ctx, bson.D{{Key: "target", Value: target}}, limit, offset)
}

func (s *Store) listAuditLog(ctx context.Context, filter bson.D, limit, offset int) ([]punishment.AuditEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := s.auditLog.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("get audit log: %w", err)
	}
	var docs []auditDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("get audit log: decode: %w", err)
	}

	entries := make([]punishment.AuditEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, docToAuditEntry(doc))
	}
	return entries, nil
}

func (s *Store) GetAuditEntry(ctx context.Context, id int64) (*punishment.AuditEntry, error) {
	var doc auditDoc
	err := s.auditLog.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get audit entry: %w", err)
	}
	entry := docToAuditEntry(doc)
	return &entry, nil
}

func (s *Store) GetRecentPunishmentIDs(ctx context.Context, limit int) ([]int64, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "issued_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.D{{Key: "_id", Value: 1}})
	return s.punishmentIDs(ctx, bson.D{}, opts)
}

func (s *Store) GetActivePunishmentIDs(ctx context.Context) ([]int64, error) {
	opts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}})
	return s.punishmentIDs(ctx, activeFilter(s.now().UnixMilli()), opts)
}

func (s *Store) punishmentIDs(ctx context.Context, filter bson.D, opts *options.FindOptionsBuilder) ([]int64, error) {
	cursor, err := s.punishments.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list punishment ids: %w", err)
	}
	var docs []struct {
		ID int64 `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list punishment ids: decode: %w", err)
	}
	ids := make([]int64, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}
