package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/eventsphere/internal/model"
	"github.com/mcoot/eventsphere/internal/storage"
)

// Script results
const (
	resultNotFound = 0
	resultConflict = 1
	resultApplied  = 2
)

// createParticipantScript claims the email index and writes the participant
// in one server-side step.
// KEYS: email index, participant hash, created ZSET
// ARGV: id, name, email, created_at, created score
var createParticipantScript = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
  return 1
end
redis.call('HSET', KEYS[2],
  'registration_id', ARGV[1],
  'name', ARGV[2],
  'email', ARGV[3],
  'attended', '0',
  'timestamp', '',
  'created_at', ARGV[4])
redis.call('ZADD', KEYS[3], ARGV[5], ARGV[1])
return 2
`)

// markAttendedScript flips attended only if it is still unset.
// KEYS: participant hash, attended SET
// ARGV: id, timestamp
var markAttendedScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
if redis.call('HGET', KEYS[1], 'attended') == '1' then
  return 1
end
redis.call('HSET', KEYS[1], 'attended', '1', 'timestamp', ARGV[2])
redis.call('SADD', KEYS[2], ARGV[1])
return 2
`)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
	keys   keys
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		cfg:    cfg,
		keys:   keys{prefix: cfg.KeyPrefix},
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Participant operations

func (s *Storage) CreateParticipant(ctx context.Context, p *model.Participant) error {
	res, err := createParticipantScript.Run(ctx, s.client,
		[]string{
			s.keys.emailIndex(p.Email),
			s.keys.participant(p.RegistrationID),
			s.keys.participantsByCreated(),
		},
		string(p.RegistrationID),
		p.Name,
		p.Email,
		formatTime(p.CreatedAt),
		p.CreatedAt.UnixMicro(),
	).Int()
	if err != nil {
		return fmt.Errorf("create participant: %w", err)
	}
	if res == resultConflict {
		return model.ErrDuplicateEmail
	}
	return nil
}

func (s *Storage) GetParticipant(ctx context.Context, id model.RegistrationID) (*model.Participant, error) {
	fields, err := s.client.HGetAll(ctx, s.keys.participant(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, model.ErrParticipantNotFound
	}
	return participantFromHash(fields)
}

func (s *Storage) MarkAttended(ctx context.Context, id model.RegistrationID, at time.Time) (*model.Participant, error) {
	res, err := markAttendedScript.Run(ctx, s.client,
		[]string{s.keys.participant(id), s.keys.attendedSet()},
		string(id),
		formatTime(at),
	).Int()
	if err != nil {
		return nil, fmt.Errorf("mark attended: %w", err)
	}

	switch res {
	case resultNotFound:
		return nil, model.ErrParticipantNotFound
	case resultConflict:
		p, err := s.GetParticipant(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &model.AlreadyCheckedInError{Participant: p}
	case resultApplied:
		return s.GetParticipant(ctx, id)
	default:
		return nil, fmt.Errorf("mark attended: unexpected script result %d", res)
	}
}

func (s *Storage) ListParticipants(ctx context.Context) ([]*model.Participant, error) {
	ids, err := s.client.ZRevRange(ctx, s.keys.participantsByCreated(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []*model.Participant{}, nil
	}

	// Fetch all hashes in one round trip
	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.keys.participant(model.RegistrationID(id)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	participants := make([]*model.Participant, 0, len(ids))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		p, err := participantFromHash(fields)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, nil
}

func (s *Storage) GetStats(ctx context.Context) (*model.Stats, error) {
	pipe := s.client.Pipeline()
	total := pipe.ZCard(ctx, s.keys.participantsByCreated())
	checkedIn := pipe.SCard(ctx, s.keys.attendedSet())
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return &model.Stats{
		Total:     int(total.Val()),
		CheckedIn: int(checkedIn.Val()),
	}, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.AdminSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	// Let Redis expire the session on its own as well
	ttl := session.ExpiresAt.Sub(session.CreatedAt)
	if ttl <= 0 {
		return fmt.Errorf("session lifetime must be positive, got %s", ttl)
	}
	return s.client.Set(ctx, s.keys.session(session.Token), data, ttl).Err()
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.AdminSession, error) {
	data, err := s.client.Get(ctx, s.keys.session(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.AdminSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.keys.session(token)).Err()
}

// DeleteExpiredSessions is a no-op; Redis expires session keys itself
func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

// Encoding helpers

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func participantFromHash(fields map[string]string) (*model.Participant, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}

	p := &model.Participant{
		RegistrationID: model.RegistrationID(fields["registration_id"]),
		Name:           fields["name"],
		Email:          fields["email"],
		Attended:       fields["attended"] == "1",
		CreatedAt:      createdAt,
	}

	if ts := fields["timestamp"]; ts != "" {
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("decode timestamp: %w", err)
		}
		p.Timestamp = &parsed
	}
	return p, nil
}
