package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"go-flowgate/internal/core/ports"
	"go-flowgate/internal/domain"
)

// DefaultPrefix namespaces every key written by the stores.
const DefaultPrefix = "flowgate:"

// maxUpdateRetries bounds optimistic retries when a WATCHed process key changes
// under a concurrent Update.
const maxUpdateRetries = 16

// Key layout:
//
//	<prefix>blueprint:<id>      => JSON blueprint
//	<prefix>idx:blueprints      => SET of blueprint IDs
//	<prefix>process:<id>        => JSON process
//	<prefix>idx:processes       => SET of process IDs
//	<prefix>idx:bp:<blueprint>  => SET of process IDs started from a blueprint
type keys struct {
	prefix string
}

func (k keys) blueprint(id string) string { return k.prefix + "blueprint:" + id }

func (k keys) blueprintIndex() string { return k.prefix + "idx:blueprints" }

func (k keys) process(id string) string { return k.prefix + "process:" + id }

func (k keys) processIndex() string { return k.prefix + "idx:processes" }

func (k keys) processesOf(bpID string) string { return k.prefix + "idx:bp:" + bpID }

func newKeys(prefix string) keys {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return keys{prefix: prefix}
}

// BlueprintStore keeps blueprints in Redis.
type BlueprintStore struct {
	client redis.UniversalClient
	keys   keys
}

var _ ports.BlueprintStore = (*BlueprintStore)(nil)

func NewBlueprintStore(client redis.UniversalClient, prefix string) *BlueprintStore {
	return &BlueprintStore{client: client, keys: newKeys(prefix)}
}

// insertBlueprint writes the blueprint and its index entry in one step, or nothing
// when the key already exists. Returns 1 on insert, 0 on duplicate.
//
// KEYS[1] blueprint key, KEYS[2] blueprint index; ARGV[1] payload, ARGV[2] ID.
var insertBlueprint = redis.NewScript(`
if redis.call("SETNX", KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call("SADD", KEYS[2], ARGV[2])
return 1
`)

// Insert runs SETNX and the index SADD as one script, so only the first writer of an
// ID wins and a stored blueprint is always listed.
func (s *BlueprintStore) Insert(ctx context.Context, bp domain.WorkflowBlueprint) error {
	payload, err := json.Marshal(bp)
	if err != nil {
		return fmt.Errorf("redis: encode blueprint %s: %w", bp.ID, err)
	}

	inserted, err := insertBlueprint.Run(ctx, s.client,
		[]string{s.keys.blueprint(bp.ID), s.keys.blueprintIndex()},
		payload, bp.ID,
	).Int()
	if err != nil {
		return fmt.Errorf("redis: insert blueprint %s: %w", bp.ID, err)
	}
	if inserted == 0 {
		return domain.DuplicateBlueprintID(bp.ID)
	}
	return nil
}

func (s *BlueprintStore) Get(ctx context.Context, id string) (domain.WorkflowBlueprint, error) {
	data, err := s.client.Get(ctx, s.keys.blueprint(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.WorkflowBlueprint{}, domain.BlueprintNotFound(id)
		}
		return domain.WorkflowBlueprint{}, fmt.Errorf("redis: get blueprint %s: %w", id, err)
	}

	var bp domain.WorkflowBlueprint
	if err := json.Unmarshal(data, &bp); err != nil {
		return domain.WorkflowBlueprint{}, fmt.Errorf("redis: decode blueprint %s: %w", id, err)
	}
	return bp, nil
}

func (s *BlueprintStore) List(ctx context.Context) ([]domain.WorkflowBlueprint, error) {
	ids, err := s.client.SMembers(ctx, s.keys.blueprintIndex()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list blueprints: %w", err)
	}

	out := make([]domain.WorkflowBlueprint, 0, len(ids))
	payloads, err := mget(ctx, s.client, ids, s.keys.blueprint)
	if err != nil {
		return nil, fmt.Errorf("redis: list blueprints: %w", err)
	}
	for _, data := range payloads {
		var bp domain.WorkflowBlueprint
		if err := json.Unmarshal(data, &bp); err != nil {
			return nil, fmt.Errorf("redis: decode blueprint: %w", err)
		}
		out = append(out, bp)
	}

	sortBlueprints(out)
	return out, nil
}

// ProcessStore keeps processes in Redis. Update uses WATCH/MULTI so a transition
// commits only if the process key did not change since it was read.
type ProcessStore struct {
	client redis.UniversalClient
	keys   keys
}

var _ ports.ProcessStore = (*ProcessStore)(nil)

func NewProcessStore(client redis.UniversalClient, prefix string) *ProcessStore {
	return &ProcessStore{client: client, keys: newKeys(prefix)}
}

func (s *ProcessStore) Insert(ctx context.Context, p domain.WorkflowProcess) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("redis: encode process %s: %w", p.ID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keys.process(p.ID), payload, 0)
	pipe.SAdd(ctx, s.keys.processIndex(), p.ID)
	pipe.SAdd(ctx, s.keys.processesOf(p.BlueprintID), p.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: insert process %s: %w", p.ID, err)
	}
	return nil
}

func (s *ProcessStore) Get(ctx context.Context, id string) (domain.WorkflowProcess, error) {
	return getProcess(ctx, s.client, s.keys.process(id), id)
}

func (s *ProcessStore) List(ctx context.Context, filter ports.ProcessFilter) ([]domain.WorkflowProcess, error) {
	index := s.keys.processIndex()
	if filter.BlueprintID != "" {
		index = s.keys.processesOf(filter.BlueprintID)
	}

	ids, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list processes: %w", err)
	}

	payloads, err := mget(ctx, s.client, ids, s.keys.process)
	if err != nil {
		return nil, fmt.Errorf("redis: list processes: %w", err)
	}

	out := make([]domain.WorkflowProcess, 0, len(payloads))
	for _, data := range payloads {
		p, err := decodeProcess(data)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	domain.SortProcesses(out)
	return out, nil
}

func (s *ProcessStore) Update(ctx context.Context, id string, fn ports.UpdateFunc) (domain.WorkflowProcess, error) {
	key := s.keys.process(id)

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		var next domain.WorkflowProcess

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := getProcess(ctx, tx, key, id)
			if err != nil {
				return err
			}

			next, err = fn(current)
			if err != nil {
				return err
			}

			payload, err := json.Marshal(next)
			if err != nil {
				return fmt.Errorf("redis: encode process %s: %w", id, err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, 0)
				return nil
			})
			return err
		}, key)

		switch {
		case err == nil:
			return next, nil
		case errors.Is(err, redis.TxFailedErr):
			// Another writer touched the key between WATCH and EXEC; re-read and retry.
			continue
		default:
			return domain.WorkflowProcess{}, err
		}
	}

	return domain.WorkflowProcess{}, fmt.Errorf("redis: update process %s: %w", id, redis.TxFailedErr)
}

// getter is the slice of the client API shared by *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getProcess(ctx context.Context, c getter, key, id string) (domain.WorkflowProcess, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.WorkflowProcess{}, domain.ProcessNotFound(id)
		}
		return domain.WorkflowProcess{}, fmt.Errorf("redis: get process %s: %w", id, err)
	}
	return decodeProcess(data)
}

func decodeProcess(data []byte) (domain.WorkflowProcess, error) {
	var p domain.WorkflowProcess
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.WorkflowProcess{}, fmt.Errorf("redis: decode process: %w", err)
	}
	if p.History == nil {
		p.History = []domain.HistoryEntry{}
	}
	return p, nil
}

// mget fetches the payloads for ids, skipping keys that vanished after the index read.
func mget(ctx context.Context, c redis.Cmdable, ids []string, key func(string) string) ([][]byte, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = key(id)
	}

	vals, err := c.MGet(ctx, names...).Result()
	if err != nil {
		return nil, err
	}

	out := make([][]byte, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		out = append(out, []byte(s))
	}
	return out, nil
}

func sortBlueprints(bps []domain.WorkflowBlueprint) {
	sort.Slice(bps, func(i, j int) bool { return bps[i].ID < bps[j].ID })
}
