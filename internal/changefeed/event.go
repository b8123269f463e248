// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package changefeed

import (
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
)

// Op is the kind of change an Event describes.
type Op string

const (
	OpPut    Op = "put"
	OpDelete Op = "delete"
)

// Event announces a change to one record. Payloads are never included.
// ID is a ULID; consumers can order and deduplicate by it.
type Event struct {
	ID       string    `json:"id"`
	Key      string    `json:"key"`
	TenantID uuid.UUID `json:"tenant_id"`
	Op       Op        `json:"op"`
	At       time.Time `json:"at"`
}

// MessageKey groups events for one record onto one partition.
func (e Event) MessageKey() string {
	return e.TenantID.String() + "/" + e.Key
}

func (e Event) toKafkaMessage() (kafka.Message, error) {
	value, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(e)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(e.MessageKey()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "op", Value: []byte(e.Op)},
		},
		Time: e.At,
	}, nil
}

// ParseEvent decodes an Event from a consumed message value.
func ParseEvent(value []byte) (Event, error) {
	var e Event
	err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(value, &e)
	return e, err
}
