package streamer

import (
	"context"

	"github.com/babupakkakivellu/File-To-Link/internal/cache"
	"github.com/babupakkakivellu/File-To-Link/internal/types"
	"go.uber.org/zap"
)

// FileProperties resolves the identity of the media stored at a message
// in the archive channel, consulting the cache first. Each worker keys
// its own entries because file references are bound to the session that
// fetched them.
func (s *ByteStreamer) FileProperties(ctx context.Context, channelID int64, messageID int) (*types.FileIdentity, error) {
	key := cache.Key(channelID, messageID, s.worker.ID)

	var file types.FileIdentity
	if err := cache.GetCache().Get(key, &file); err == nil {
		return &file, nil
	}

	msg, err := s.fetchMessage(ctx, channelID, messageID)
	if err != nil {
		return nil, err
	}
	identity, err := IdentityFromMessage(msg)
	if err != nil {
		return nil, err
	}

	if err := cache.GetCache().Set(key, identity); err != nil {
		s.log.Debug("Failed to cache file properties", zap.String("key", key), zap.Error(err))
	}
	return identity, nil
}
