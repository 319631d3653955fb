// Copyright 2026 Echotwin Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/echotwin/echotwin/core"
	"github.com/echotwin/echotwin/storage"
)

// PersonaRepository implements storage.PersonaRepository for BadgerDB.
// The profile and each configuration record live under their own keys so
// concurrent readers never contend on a single blob.
type PersonaRepository struct {
	backend *Backend
}

var _ storage.PersonaRepository = (*PersonaRepository)(nil)

// NewPersonaRepository creates a new PersonaRepository.
func NewPersonaRepository(backend *Backend) (storage.PersonaRepository, error) {
	return &PersonaRepository{backend: backend}, nil
}

// Close releases repository resources.
func (r *PersonaRepository) Close() error {
	return nil
}

// PutPersona creates or updates a persona profile.
func (r *PersonaRepository) PutPersona(ctx context.Context, persona *core.Persona) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makePersonaKey(persona.Id)

		old, err := readPersona(tx, key)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if old != nil {
			persona.InsertedAt = old.InsertedAt
		} else if persona.InsertedAt.IsZero() {
			persona.InsertedAt = now
		}
		persona.UpdatedAt = now

		if err := tx.Set(key, storage.MarshalPersona(persona)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetPersona retrieves a persona by ID.
func (r *PersonaRepository) GetPersona(ctx context.Context, personaID string) (*core.Persona, error) {
	var result *core.Persona
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readPersona(tx, makePersonaKey(personaID))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// DeletePersona removes a persona profile and its configuration records.
func (r *PersonaRepository) DeletePersona(ctx context.Context, personaID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makePersonaKey(personaID)
		persona, err := readPersona(tx, key)
		if err != nil {
			return err
		}
		if persona == nil {
			return storage.ErrNotFound
		}

		keys := [][]byte{
			key,
			makePersonaFactsKey(personaID),
			makePersonaQAKey(personaID),
			makePersonaTopicsKey(personaID),
			makePersonaRulesKey(personaID),
		}
		for _, k := range keys {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// PutFacts replaces the persona's fact list.
func (r *PersonaRepository) PutFacts(ctx context.Context, personaID string, facts []string) error {
	return r.putRecord(makePersonaFactsKey(personaID), storage.MarshalStringList(facts))
}

// GetFacts retrieves the persona's fact list.
func (r *PersonaRepository) GetFacts(ctx context.Context, personaID string) ([]string, error) {
	var facts []string
	err := r.getRecord(makePersonaFactsKey(personaID), func(val []byte) error {
		var err error
		facts, err = storage.UnmarshalStringList(val)
		return err
	})
	return facts, err
}

// PutQAPairs replaces the persona's few-shot question/answer examples.
func (r *PersonaRepository) PutQAPairs(ctx context.Context, personaID string, pairs []core.QAPair) error {
	return r.putRecord(makePersonaQAKey(personaID), storage.MarshalQAPairs(pairs))
}

// GetQAPairs retrieves the persona's question/answer examples.
func (r *PersonaRepository) GetQAPairs(ctx context.Context, personaID string) ([]core.QAPair, error) {
	var pairs []core.QAPair
	err := r.getRecord(makePersonaQAKey(personaID), func(val []byte) error {
		var err error
		pairs, err = storage.UnmarshalQAPairs(val)
		return err
	})
	return pairs, err
}

// PutTopicsToAvoid replaces the persona's list of off-limits topics.
func (r *PersonaRepository) PutTopicsToAvoid(ctx context.Context, personaID string, topics []string) error {
	return r.putRecord(makePersonaTopicsKey(personaID), storage.MarshalStringList(topics))
}

// GetTopicsToAvoid retrieves the persona's off-limits topics.
func (r *PersonaRepository) GetTopicsToAvoid(ctx context.Context, personaID string) ([]string, error) {
	var topics []string
	err := r.getRecord(makePersonaTopicsKey(personaID), func(val []byte) error {
		var err error
		topics, err = storage.UnmarshalStringList(val)
		return err
	})
	return topics, err
}

// PutKeywordRules replaces the persona's keyword rules, preserving order.
func (r *PersonaRepository) PutKeywordRules(ctx context.Context, personaID string, rules []core.KeywordRule) error {
	return r.putRecord(makePersonaRulesKey(personaID), storage.MarshalKeywordRules(rules))
}

// GetKeywordRules retrieves the persona's keyword rules in stored order.
func (r *PersonaRepository) GetKeywordRules(ctx context.Context, personaID string) ([]core.KeywordRule, error) {
	var rules []core.KeywordRule
	err := r.getRecord(makePersonaRulesKey(personaID), func(val []byte) error {
		var err error
		rules, err = storage.UnmarshalKeywordRules(val)
		return err
	})
	return rules, err
}

// putRecord overwrites a single configuration record.
func (r *PersonaRepository) putRecord(key, value []byte) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// getRecord reads a single configuration record.
// A missing record is not an error: the decode callback is simply skipped,
// leaving the caller's zero value in place.
func (r *PersonaRepository) getRecord(key []byte, decode func(val []byte) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(decode)
	}, false)
}

// readPersona reads a persona record from the transaction.
func readPersona(tx *badger.Txn, key []byte) (*core.Persona, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var persona *core.Persona
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		persona, unmarshalErr = storage.UnmarshalPersona(val)
		return unmarshalErr
	})
	return persona, err
}
