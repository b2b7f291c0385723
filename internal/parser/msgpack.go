package parser

import (
	"io"

	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// MsgpackCodec is the compact binary layout format.
type MsgpackCodec struct{}

func NewMsgpackCodec() *MsgpackCodec { return &MsgpackCodec{} }

func (c *MsgpackCodec) Name() string         { return "msgpack" }
func (c *MsgpackCodec) Extensions() []string { return []string{".msgpack", ".mpk"} }
func (c *MsgpackCodec) ContentType() string  { return "application/x-msgpack" }

func (c *MsgpackCodec) Decode(r io.Reader) (models.Document, error) {
	var raw rawDocument
	if err := msgpack.NewDecoder(r).Decode(&raw); err != nil {
		return models.Document{}, err
	}
	return raw.document(), nil
}

func (c *MsgpackCodec) Encode(w io.Writer, doc models.Document) error {
	return msgpack.NewEncoder(w).Encode(doc)
}
