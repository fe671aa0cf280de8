package routes

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/babupakkakivellu/File-To-Link/config"
	"github.com/babupakkakivellu/File-To-Link/internal/bot"
	"github.com/babupakkakivellu/File-To-Link/internal/linkcode"
	"github.com/babupakkakivellu/File-To-Link/internal/streamer"
	"github.com/babupakkakivellu/File-To-Link/internal/types"
	"github.com/babupakkakivellu/File-To-Link/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gotd/td/constant"
	range_parser "github.com/quantumsheep/range-parser"
	"go.uber.org/zap"
)

func (e *allRoutes) LoadStream(r *gin.Engine) {
	defer e.log.Sugar().Info("Loaded stream route")
	r.GET("/dl/:token/:filename", getStreamRoute)
	r.HEAD("/dl/:token/:filename", getStreamRoute)
}

func getStreamRoute(ctx *gin.Context) {
	log := utils.Logger.Named("Stream")
	w := ctx.Writer
	r := ctx.Request

	payload, err := linkcode.Decode(ctx.Param("token"))
	if err != nil {
		http.Error(w, "invalid link", http.StatusBadRequest)
		return
	}
	archiveID := plainArchiveID(payload.ChatID)
	messageID := payload.MsgID

	// The existence check runs on the primary bot on purpose: it is the
	// identity guaranteed to be in the archive channel, and a cheap
	// properties fetch doubles as a liveness probe before a worker is
	// committed to the stream.
	primary := bot.GetDefaultWorker()
	if primary == nil {
		http.Error(w, "no available workers", http.StatusServiceUnavailable)
		return
	}
	live, err := streamer.ForWorker(primary).FileProperties(ctx, archiveID, messageID)
	if err != nil {
		log.Debug("Existence check failed",
			zap.Int64("archiveId", archiveID),
			zap.Int("messageId", messageID),
			zap.Error(err))
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	expectedPrefix := integrityPrefix(live.UniqueID)

	worker := bot.GetNextWorker()
	if worker == nil {
		http.Error(w, "no available workers", http.StatusServiceUnavailable)
		return
	}
	stream := streamer.ForWorker(worker)

	file, err := stream.FileProperties(ctx, archiveID, messageID)
	if err != nil {
		log.Debug("Properties fetch failed",
			zap.Int("worker", worker.ID),
			zap.Int("messageId", messageID),
			zap.Error(err))
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	if integrityPrefix(file.UniqueID) != expectedPrefix {
		http.Error(w, "file integrity check failed", http.StatusForbidden)
		return
	}

	start, end := int64(0), file.Size-1
	rangeHeader := r.Header.Get("Range")
	if rangeHeader != "" {
		ranges, err := range_parser.Parse(file.Size, rangeHeader)
		// The parser clamps an explicit end past EOF to the last byte;
		// that range is unsatisfiable, not a shorter range.
		if err != nil || len(ranges) == 0 || rangeEndExceedsSize(rangeHeader, file.Size) {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", file.Size))
			http.Error(w, "requested range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
			return
		}
		start, end = ranges[0].Start, ranges[0].End
	}

	fileName := resolveFilename(ctx.Param("filename"), file)
	mimeType := resolveMimeType(file.MimeType, fileName)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", fileName))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges")

	status := http.StatusOK
	if rangeHeader != "" {
		status = http.StatusPartialContent
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, file.Size))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", end-start+1))
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(status)
		return
	}

	geo := streamer.GeometryFor(start, end)
	reader, err := stream.NewReader(ctx, file, geo)
	if err != nil {
		log.Error("Failed to open stream",
			zap.Int("worker", worker.ID),
			zap.Int("messageId", messageID),
			zap.Error(err))
		http.Error(w, "failed to open stream", http.StatusInternalServerError)
		return
	}
	defer reader.Close()

	w.WriteHeader(status)
	if _, err := io.Copy(w, reader); err != nil {
		// Headers are gone by now; a broken pipe here is almost always the
		// player seeking or the client going away.
		log.Debug("Stream ended early",
			zap.Int("worker", worker.ID),
			zap.Int("messageId", messageID),
			zap.Error(err))
	}
}

// rangeEndExceedsSize reports whether "bytes=A-B" names an explicit end
// past the last byte. Open-ended and suffix forms carry no explicit end
// and are never rejected here.
func rangeEndExceedsSize(header string, size int64) bool {
	_, after, ok := strings.Cut(header, "-")
	if !ok {
		return false
	}
	end, err := strconv.ParseInt(strings.TrimSpace(after), 10, 64)
	if err != nil {
		return false
	}
	return end > size-1
}

// plainArchiveID strips the bot-API channel marker when the token was
// minted from a prefixed ID.
func plainArchiveID(chatID int64) int64 {
	if tid := constant.TDLibPeerID(chatID); tid.IsChannel() {
		return tid.ToPlain()
	}
	if chatID < 0 {
		return -chatID
	}
	return chatID
}

// integrityPrefix returns the leading HASH_LENGTH characters of a stable
// unique ID, the cheap consistency check between the lookup and stream
// paths.
func integrityPrefix(uniqueID string) string {
	n := config.ValueOf.HashLength
	if n > len(uniqueID) {
		n = len(uniqueID)
	}
	return uniqueID[:n]
}

// resolveFilename prefers the stored name, then the name requested in the
// URL, then a random one with an extension guessed from the MIME type.
func resolveFilename(requested string, file *types.FileIdentity) string {
	if file.Name != "" {
		return file.Name
	}
	if requested != "" && requested != "file" {
		return requested
	}
	var buf [8]byte
	_, _ = rand.Read(buf[:])
	name := hex.EncodeToString(buf[:])
	if exts, err := mime.ExtensionsByType(file.MimeType); err == nil && len(exts) > 0 {
		return name + exts[0]
	}
	return name
}

func resolveMimeType(stored, fileName string) string {
	if stored != "" {
		return stored
	}
	if byExt := mime.TypeByExtension(filepath.Ext(fileName)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}
