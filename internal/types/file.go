package types

import (
	"encoding/base64"
	"encoding/binary"
)

// FileType selects the upload.getFile location variant used when
// streaming a file.
type FileType uint8

const (
	FileTypeDocument FileType = iota
	FileTypeVideo
	FileTypeAudio
	FileTypeVoice
	FileTypePhoto
	FileTypeChatPhoto
)

func (t FileType) String() string {
	switch t {
	case FileTypeDocument:
		return "document"
	case FileTypeVideo:
		return "video"
	case FileTypeAudio:
		return "audio"
	case FileTypeVoice:
		return "voice"
	case FileTypePhoto:
		return "photo"
	case FileTypeChatPhoto:
		return "chat_photo"
	}
	return "unknown"
}

// FileIdentity is everything needed to stream one archived file: the
// platform handle (media ID, access hash, file reference), the home
// datacenter, and display metadata. Instances are immutable once built
// and safe to cache.
//
// All fields are exported flat so the struct gob-encodes without a
// custom codec.
type FileIdentity struct {
	Type          FileType
	MediaID       int64
	AccessHash    int64
	FileReference []byte
	DCID          int
	Size          int64
	Name          string
	MimeType      string
	UniqueID      string
	ThumbSize     string

	// Chat-photo locations address the photo through its owning peer
	// rather than a document handle.
	PhotoID        int64
	PeerID         int64
	PeerAccessHash int64
	Big            bool
}

// Unique-ID type tags, matching the bot-API file_unique_id packing.
const (
	uniqueTypePhoto    = 1
	uniqueTypeDocument = 2
)

// UniqueFileID derives the stable unique identifier for a media object.
// Its leading characters serve as the link integrity prefix, so the same
// media must always map to the same string.
func UniqueFileID(t FileType, mediaID int64) string {
	tag := uniqueTypeDocument
	if t == FileTypePhoto || t == FileTypeChatPhoto {
		tag = uniqueTypePhoto
	}
	var packed [12]byte
	binary.LittleEndian.PutUint32(packed[:4], uint32(tag))
	binary.LittleEndian.PutUint64(packed[4:], uint64(mediaID))
	return base64.RawURLEncoding.EncodeToString(packed[:])
}

// RootResponse is the JSON blob served at "/".
type RootResponse struct {
	Status    string        `json:"status"`
	Bot       string        `json:"bot"`
	Version   string        `json:"version"`
	Endpoints RootEndpoints `json:"endpoints"`
}

type RootEndpoints struct {
	Download string `json:"download"`
}
