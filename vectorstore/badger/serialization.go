// Copyright 2025 Sabela Labs
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
	"fmt"

	mus "github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/sabela/consulta/core"
	"github.com/sabela/consulta/vectorstore"
)

// MUS serializers for the stored record types. Field order is part of the
// on-disk format; append-only changes only.

var vectorSer = ord.NewSliceSer[float32](raw.Float32)

type pointSer struct{}

var pointMUS = pointSer{}

var _ mus.Serializer[core.Point] = pointSer{}

func (pointSer) Marshal(p core.Point, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(p.ID), bs)
	n += vectorSer.Marshal(p.Vector, bs[n:])
	n += ord.String.Marshal(p.Payload.Pregunta, bs[n:])
	n += ord.String.Marshal(p.Payload.Respuesta, bs[n:])
	n += varint.Int.Marshal(p.Payload.Grupo, bs[n:])
	n += ord.String.Marshal(p.Payload.Tema, bs[n:])
	return n
}

func (pointSer) Unmarshal(bs []byte) (p core.Point, n int, err error) {
	var (
		id uint64
		n1 int
	)
	id, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	p.ID = core.ID(id)
	p.Vector, n1, err = vectorSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	p.Payload.Pregunta, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	p.Payload.Respuesta, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	p.Payload.Grupo, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	p.Payload.Tema, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (pointSer) Size(p core.Point) (size int) {
	size = varint.Uint64.Size(uint64(p.ID))
	size += vectorSer.Size(p.Vector)
	size += ord.String.Size(p.Payload.Pregunta)
	size += ord.String.Size(p.Payload.Respuesta)
	size += varint.Int.Size(p.Payload.Grupo)
	size += ord.String.Size(p.Payload.Tema)
	return size
}

func (pointSer) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = varint.Uint64.Skip(bs)
	if err != nil {
		return
	}
	n1, err = vectorSer.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for i := 0; i < 2; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	return
}

type metaSer struct{}

var metaMUS = metaSer{}

var _ mus.Serializer[vectorstore.Meta] = metaSer{}

func (metaSer) Marshal(m vectorstore.Meta, bs []byte) (n int) {
	n = varint.Int.Marshal(m.Dim, bs)
	n += ord.String.Marshal(m.Fingerprint, bs[n:])
	return n
}

func (metaSer) Unmarshal(bs []byte) (m vectorstore.Meta, n int, err error) {
	var n1 int
	m.Dim, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	m.Fingerprint, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (metaSer) Size(m vectorstore.Meta) int {
	return varint.Int.Size(m.Dim) + ord.String.Size(m.Fingerprint)
}

func (metaSer) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = varint.Int.Skip(bs)
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	return
}

// marshalPoint serializes a point record.
func marshalPoint(p core.Point) []byte {
	buf := make([]byte, pointMUS.Size(p))
	pointMUS.Marshal(p, buf)
	return buf
}

// unmarshalPoint deserializes a point record.
func unmarshalPoint(data []byte) (core.Point, error) {
	p, _, err := pointMUS.Unmarshal(data)
	if err != nil {
		return core.Point{}, fmt.Errorf("%w: %w", vectorstore.ErrSerializationFailed, err)
	}
	return p, nil
}

// marshalMeta serializes collection metadata.
func marshalMeta(m vectorstore.Meta) []byte {
	buf := make([]byte, metaMUS.Size(m))
	metaMUS.Marshal(m, buf)
	return buf
}

// unmarshalMeta deserializes collection metadata.
func unmarshalMeta(data []byte) (vectorstore.Meta, error) {
	m, _, err := metaMUS.Unmarshal(data)
	if err != nil {
		return vectorstore.Meta{}, fmt.Errorf("%w: %w", vectorstore.ErrSerializationFailed, err)
	}
	return m, nil
}
