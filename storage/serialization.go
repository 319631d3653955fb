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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/echotwin/echotwin/core"
)

// MUS serialization for all persisted records. Times are stored as UnixMicro
// with 0 standing in for the zero time, vectors as raw float32, and
// everything variable-length behind a varint count.

// serializationError tags a deserialization failure with
// ErrSerializationFailed while keeping the specific cause (ErrTruncatedData,
// mus primitive errors) matchable with errors.Is.
func serializationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrSerializationFailed, err)
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	return core.ID(v), serializationError(err)
}

// time helpers

func sizeTime(t time.Time) int {
	return varint.Int64.Size(timeToMicro(t))
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(timeToMicro(t), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micro, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	if micro == 0 {
		return time.Time{}, n, nil
	}
	return time.UnixMicro(micro).UTC(), n, nil
}

func timeToMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

// byte slice helpers

func sizeBytes(v []byte) int {
	return varint.Int.Size(len(v)) + len(v)
}

func marshalBytes(v []byte, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	n += copy(bs[n:], v)
	return n
}

func unmarshalBytes(bs []byte) ([]byte, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 || n+length > len(bs) {
		return nil, n, ErrTruncatedData
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]byte, length)
	copy(v, bs[n:n+length])
	return v, n + length, nil
}

// string slice helpers

func sizeStringSlice(v []string) int {
	size := varint.Int.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return size
}

func marshalStringSlice(v []string, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func unmarshalStringSlice(bs []byte) ([]string, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, ErrTruncatedData
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]string, length)
	for i := 0; i < length; i++ {
		var n1 int
		v[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

// string map helpers

func sizeStringMap(v map[string]string) int {
	size := varint.Int.Size(len(v))
	for key, value := range v {
		size += ord.String.Size(key) + ord.String.Size(value)
	}
	return size
}

func marshalStringMap(v map[string]string, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for key, value := range v {
		n += ord.String.Marshal(key, bs[n:])
		n += ord.String.Marshal(value, bs[n:])
	}
	return n
}

func unmarshalStringMap(bs []byte) (map[string]string, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, ErrTruncatedData
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make(map[string]string, length)
	for i := 0; i < length; i++ {
		var key, value string
		var n1 int
		key, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		value, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		v[key] = value
	}
	return v, n, nil
}

// vector helpers

func sizeVector(v []float32) int {
	size := varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

func marshalVector(v []float32, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) ([]float32, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, ErrTruncatedData
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]float32, length)
	for i := 0; i < length; i++ {
		var n1 int
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

// MarshalSource serializes a ContentSource to bytes.
func MarshalSource(source *core.ContentSource) []byte {
	size := varint.Uint64.Size(uint64(source.Id)) +
		ord.String.Size(source.PersonaId) +
		varint.Int.Size(int(source.Type)) +
		ord.String.Size(source.URL) +
		sizeBytes(source.RawContent) +
		sizeTime(source.AddedAt) +
		sizeTime(source.LastProcessedAt)

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(source.Id), buf)
	n += ord.String.Marshal(source.PersonaId, buf[n:])
	n += varint.Int.Marshal(int(source.Type), buf[n:])
	n += ord.String.Marshal(source.URL, buf[n:])
	n += marshalBytes(source.RawContent, buf[n:])
	n += marshalTime(source.AddedAt, buf[n:])
	marshalTime(source.LastProcessedAt, buf[n:])
	return buf
}

// UnmarshalSource deserializes a ContentSource from bytes.
func UnmarshalSource(data []byte) (*core.ContentSource, error) {
	source, err := unmarshalSource(data)
	return source, serializationError(err)
}

func unmarshalSource(data []byte) (*core.ContentSource, error) {
	var (
		source core.ContentSource
		n, n1  int
		err    error
	)

	id, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	source.Id = core.ID(id)

	source.PersonaId, n1, err = ord.String.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}

	sourceType, n1, err := varint.Int.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}
	source.Type = core.SourceType(sourceType)

	source.URL, n1, err = ord.String.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}

	source.RawContent, n1, err = unmarshalBytes(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}

	source.AddedAt, n1, err = unmarshalTime(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}

	source.LastProcessedAt, _, err = unmarshalTime(data[n:])
	if err != nil {
		return nil, err
	}
	return &source, nil
}

// MarshalChunk serializes a ContentChunk to bytes.
func MarshalChunk(chunk *core.ContentChunk) []byte {
	size := varint.Uint64.Size(uint64(chunk.Id)) +
		ord.String.Size(chunk.PersonaId) +
		varint.Int.Size(int(chunk.Type)) +
		ord.String.Size(chunk.URL) +
		ord.String.Size(chunk.Text) +
		sizeVector(chunk.Vector) +
		sizeStringMap(chunk.Metadata) +
		sizeTime(chunk.InsertedAt)

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(chunk.Id), buf)
	n += ord.String.Marshal(chunk.PersonaId, buf[n:])
	n += varint.Int.Marshal(int(chunk.Type), buf[n:])
	n += ord.String.Marshal(chunk.URL, buf[n:])
	n += ord.String.Marshal(chunk.Text, buf[n:])
	n += marshalVector(chunk.Vector, buf[n:])
	n += marshalStringMap(chunk.Metadata, buf[n:])
	marshalTime(chunk.InsertedAt, buf[n:])
	return buf
}

// UnmarshalChunk deserializes a ContentChunk from bytes.
func UnmarshalChunk(data []byte) (*core.ContentChunk, error) {
	chunk, err := unmarshalChunk(data)
	return chunk, serializationError(err)
}

func unmarshalChunk(data []byte) (*core.ContentChunk, error) {
	var (
		chunk core.ContentChunk
		n, n1 int
		err   error
	)

	id, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	chunk.Id = core.ID(id)

	chunk.PersonaId, n1, err = ord.String.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}

	chunkType, n1, err := varint.Int.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}
	chunk.Type = core.SourceType(chunkType)

	chunk.URL, n1, err = ord.String.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}

	chunk.Text, n1, err = ord.String.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}

	chunk.Vector, n1, err = unmarshalVector(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}

	chunk.Metadata, n1, err = unmarshalStringMap(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}

	chunk.InsertedAt, _, err = unmarshalTime(data[n:])
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalJob serializes a CrawlJob to bytes.
func MarshalJob(job *core.CrawlJob) []byte {
	size := varint.Uint64.Size(uint64(job.Id)) +
		ord.String.Size(job.PersonaId) +
		ord.String.Size(job.URL) +
		varint.Int.Size(int(job.Type)) +
		varint.Int.Size(int(job.Status)) +
		varint.Int.Size(int(job.Stage)) +
		varint.Int.Size(job.Attempt) +
		ord.String.Size(job.Error) +
		sizeTime(job.EnqueuedAt) +
		sizeTime(job.StartedAt) +
		sizeTime(job.FinishedAt)

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(job.Id), buf)
	n += ord.String.Marshal(job.PersonaId, buf[n:])
	n += ord.String.Marshal(job.URL, buf[n:])
	n += varint.Int.Marshal(int(job.Type), buf[n:])
	n += varint.Int.Marshal(int(job.Status), buf[n:])
	n += varint.Int.Marshal(int(job.Stage), buf[n:])
	n += varint.Int.Marshal(job.Attempt, buf[n:])
	n += ord.String.Marshal(job.Error, buf[n:])
	n += marshalTime(job.EnqueuedAt, buf[n:])
	n += marshalTime(job.StartedAt, buf[n:])
	marshalTime(job.FinishedAt, buf[n:])
	return buf
}

// UnmarshalJob deserializes a CrawlJob from bytes.
func UnmarshalJob(data []byte) (*core.CrawlJob, error) {
	job, err := unmarshalJob(data)
	return job, serializationError(err)
}

func unmarshalJob(data []byte) (*core.CrawlJob, error) {
	var (
		job   core.CrawlJob
		n, n1 int
		err   error
	)

	id, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	job.Id = core.ID(id)

	job.PersonaId, n1, err = ord.String.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}

	job.URL, n1, err = ord.String.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}

	jobType, n1, err := varint.Int.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}
	job.Type = core.SourceType(jobType)

	status, n1, err := varint.Int.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}
	job.Status = core.JobStatus(status)

	stage, n1, err := varint.Int.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}
	job.Stage = core.JobStage(stage)

	job.Attempt, n1, err = varint.Int.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}

	job.Error, n1, err = ord.String.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}

	job.EnqueuedAt, n1, err = unmarshalTime(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}

	job.StartedAt, n1, err = unmarshalTime(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}

	job.FinishedAt, _, err = unmarshalTime(data[n:])
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// MarshalPersona serializes a Persona to bytes.
func MarshalPersona(persona *core.Persona) []byte {
	size := ord.String.Size(persona.Id) +
		ord.String.Size(persona.Name) +
		ord.String.Size(persona.Bio) +
		sizeTime(persona.InsertedAt) +
		sizeTime(persona.UpdatedAt)

	buf := make([]byte, size)
	n := ord.String.Marshal(persona.Id, buf)
	n += ord.String.Marshal(persona.Name, buf[n:])
	n += ord.String.Marshal(persona.Bio, buf[n:])
	n += marshalTime(persona.InsertedAt, buf[n:])
	marshalTime(persona.UpdatedAt, buf[n:])
	return buf
}

// UnmarshalPersona deserializes a Persona from bytes.
func UnmarshalPersona(data []byte) (*core.Persona, error) {
	persona, err := unmarshalPersona(data)
	return persona, serializationError(err)
}

func unmarshalPersona(data []byte) (*core.Persona, error) {
	var (
		persona core.Persona
		n, n1   int
		err     error
	)

	persona.Id, n, err = ord.String.Unmarshal(data)
	if err != nil {
		return nil, err
	}

	persona.Name, n1, err = ord.String.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}

	persona.Bio, n1, err = ord.String.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}

	persona.InsertedAt, n1, err = unmarshalTime(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}

	persona.UpdatedAt, _, err = unmarshalTime(data[n:])
	if err != nil {
		return nil, err
	}
	return &persona, nil
}

// MarshalStringList serializes a list of strings (facts, topics) to bytes.
func MarshalStringList(values []string) []byte {
	buf := make([]byte, sizeStringSlice(values))
	marshalStringSlice(values, buf)
	return buf
}

// UnmarshalStringList deserializes a list of strings from bytes.
func UnmarshalStringList(data []byte) ([]string, error) {
	values, _, err := unmarshalStringSlice(data)
	return values, serializationError(err)
}

// MarshalQAPairs serializes question/answer examples to bytes.
func MarshalQAPairs(pairs []core.QAPair) []byte {
	size := varint.Int.Size(len(pairs))
	for _, pair := range pairs {
		size += ord.String.Size(pair.Question) + ord.String.Size(pair.Answer)
	}

	buf := make([]byte, size)
	n := varint.Int.Marshal(len(pairs), buf)
	for _, pair := range pairs {
		n += ord.String.Marshal(pair.Question, buf[n:])
		n += ord.String.Marshal(pair.Answer, buf[n:])
	}
	return buf
}

// UnmarshalQAPairs deserializes question/answer examples from bytes.
func UnmarshalQAPairs(data []byte) ([]core.QAPair, error) {
	pairs, err := unmarshalQAPairs(data)
	return pairs, serializationError(err)
}

func unmarshalQAPairs(data []byte) ([]core.QAPair, error) {
	length, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, ErrTruncatedData
	}
	if length == 0 {
		return nil, nil
	}

	pairs := make([]core.QAPair, length)
	for i := 0; i < length; i++ {
		var n1 int
		pairs[i].Question, n1, err = ord.String.Unmarshal(data[n:])
		n += n1
		if err != nil {
			return nil, err
		}
		pairs[i].Answer, n1, err = ord.String.Unmarshal(data[n:])
		n += n1
		if err != nil {
			return nil, err
		}
	}
	return pairs, nil
}

// MarshalKeywordRules serializes keyword rules to bytes, preserving order.
func MarshalKeywordRules(rules []core.KeywordRule) []byte {
	size := varint.Int.Size(len(rules))
	for _, rule := range rules {
		size += ord.String.Size(rule.Keywords) +
			ord.String.Size(rule.Response) +
			varint.Int.Size(rule.Priority)
	}

	buf := make([]byte, size)
	n := varint.Int.Marshal(len(rules), buf)
	for _, rule := range rules {
		n += ord.String.Marshal(rule.Keywords, buf[n:])
		n += ord.String.Marshal(rule.Response, buf[n:])
		n += varint.Int.Marshal(rule.Priority, buf[n:])
	}
	return buf
}

// UnmarshalKeywordRules deserializes keyword rules from bytes.
func UnmarshalKeywordRules(data []byte) ([]core.KeywordRule, error) {
	rules, err := unmarshalKeywordRules(data)
	return rules, serializationError(err)
}

func unmarshalKeywordRules(data []byte) ([]core.KeywordRule, error) {
	length, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, ErrTruncatedData
	}
	if length == 0 {
		return nil, nil
	}

	rules := make([]core.KeywordRule, length)
	for i := 0; i < length; i++ {
		var n1 int
		rules[i].Keywords, n1, err = ord.String.Unmarshal(data[n:])
		n += n1
		if err != nil {
			return nil, err
		}
		rules[i].Response, n1, err = ord.String.Unmarshal(data[n:])
		n += n1
		if err != nil {
			return nil, err
		}
		rules[i].Priority, n1, err = varint.Int.Unmarshal(data[n:])
		n += n1
		if err != nil {
			return nil, err
		}
	}
	return rules, nil
}
