package streamer

import (
	"errors"
	"fmt"

	"github.com/babupakkakivellu/File-To-Link/internal/types"
	"github.com/gotd/td/constant"
	"github.com/gotd/td/tg"
)

// IdentityFromMessage decodes a message's media into a FileIdentity.
func IdentityFromMessage(msg *tg.Message) (*types.FileIdentity, error) {
	if msg == nil || msg.Media == nil {
		return nil, fmt.Errorf("%w: message has no media", ErrNotFound)
	}
	return IdentityFromMedia(msg.Media)
}

// IdentityFromMedia decodes a media object into a FileIdentity. Only
// document-backed media (video, document, audio, voice) and photos are
// streamable; anything else is not-found.
func IdentityFromMedia(media tg.MessageMediaClass) (*types.FileIdentity, error) {
	switch m := media.(type) {
	case *tg.MessageMediaDocument:
		documentClass, ok := m.GetDocument()
		if !ok {
			return nil, fmt.Errorf("%w: empty document", ErrNotFound)
		}
		document, ok := documentClass.AsNotEmpty()
		if !ok {
			return nil, fmt.Errorf("%w: empty document", ErrNotFound)
		}
		return identityFromDocument(document)
	case *tg.MessageMediaPhoto:
		photoClass, ok := m.GetPhoto()
		if !ok {
			return nil, fmt.Errorf("%w: empty photo", ErrNotFound)
		}
		photo, ok := photoClass.AsNotEmpty()
		if !ok {
			return nil, fmt.Errorf("%w: empty photo", ErrNotFound)
		}
		return identityFromPhoto(photo)
	}
	return nil, fmt.Errorf("%w: no supported media", ErrNotFound)
}

func identityFromDocument(document *tg.Document) (*types.FileIdentity, error) {
	fileType := types.FileTypeDocument
	var fileName string
	for _, attribute := range document.Attributes {
		switch attr := attribute.(type) {
		case *tg.DocumentAttributeVideo:
			fileType = types.FileTypeVideo
		case *tg.DocumentAttributeAudio:
			if attr.Voice {
				fileType = types.FileTypeVoice
			} else {
				fileType = types.FileTypeAudio
			}
		case *tg.DocumentAttributeFilename:
			fileName = attr.FileName
		}
	}
	return &types.FileIdentity{
		Type:          fileType,
		MediaID:       document.ID,
		AccessHash:    document.AccessHash,
		FileReference: document.FileReference,
		DCID:          document.DCID,
		Size:          document.Size,
		Name:          fileName,
		MimeType:      document.MimeType,
		UniqueID:      types.UniqueFileID(fileType, document.ID),
	}, nil
}

func identityFromPhoto(photo *tg.Photo) (*types.FileIdentity, error) {
	sizes := photo.Sizes
	if len(sizes) == 0 {
		return nil, errors.New("photo has no sizes")
	}
	size, ok := sizes[len(sizes)-1].AsNotEmpty()
	if !ok {
		return nil, errors.New("photo size is empty")
	}
	var fileSize int64
	if progressive, ok := size.(*tg.PhotoSizeProgressive); ok {
		if len(progressive.Sizes) > 0 {
			fileSize = int64(progressive.Sizes[len(progressive.Sizes)-1])
		}
	} else if s, ok := size.(*tg.PhotoSize); ok {
		fileSize = int64(s.Size)
	}
	return &types.FileIdentity{
		Type:          types.FileTypePhoto,
		MediaID:       photo.GetID(),
		AccessHash:    photo.GetAccessHash(),
		FileReference: photo.GetFileReference(),
		DCID:          photo.DCID,
		Size:          fileSize,
		Name:          fmt.Sprintf("photo_%d.jpg", photo.GetID()),
		MimeType:      "image/jpeg",
		UniqueID:      types.UniqueFileID(types.FileTypePhoto, photo.GetID()),
		ThumbSize:     size.GetType(),
	}, nil
}

// Location builds the upload.getFile location descriptor for a file.
func Location(file *types.FileIdentity) (tg.InputFileLocationClass, error) {
	switch file.Type {
	case types.FileTypeChatPhoto:
		peer, err := chatPhotoPeer(file)
		if err != nil {
			return nil, err
		}
		return &tg.InputPeerPhotoFileLocation{
			Peer:    peer,
			PhotoID: file.PhotoID,
			Big:     file.Big,
		}, nil
	case types.FileTypePhoto:
		return &tg.InputPhotoFileLocation{
			ID:            file.MediaID,
			AccessHash:    file.AccessHash,
			FileReference: file.FileReference,
			ThumbSize:     file.ThumbSize,
		}, nil
	default:
		return &tg.InputDocumentFileLocation{
			ID:            file.MediaID,
			AccessHash:    file.AccessHash,
			FileReference: file.FileReference,
			ThumbSize:     file.ThumbSize,
		}, nil
	}
}

// chatPhotoPeer picks the owning peer for a chat-photo location: users
// have positive IDs, basic groups carry no access hash, and everything
// else is a channel.
func chatPhotoPeer(file *types.FileIdentity) (tg.InputPeerClass, error) {
	switch {
	case file.PeerID > 0:
		return &tg.InputPeerUser{
			UserID:     file.PeerID,
			AccessHash: file.PeerAccessHash,
		}, nil
	case file.PeerAccessHash == 0:
		return &tg.InputPeerChat{ChatID: -file.PeerID}, nil
	default:
		return &tg.InputPeerChannel{
			ChannelID:  plainChannelID(file.PeerID),
			AccessHash: file.PeerAccessHash,
		}, nil
	}
}

func plainChannelID(id int64) int64 {
	if tid := constant.TDLibPeerID(id); tid.IsChannel() {
		return tid.ToPlain()
	}
	return id
}
