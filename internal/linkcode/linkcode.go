// Package linkcode implements the opaque download-link token: a compact
// JSON payload, deflated and rendered as a base-62 big-endian integer.
// Tokens are capabilities; they carry no MAC.
package linkcode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/gotd/td/constant"
	"github.com/klauspost/compress/zlib"
)

const base62Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ErrBadToken covers every way a token can fail to decode: a character
// outside the base-62 alphabet, a truncated deflate stream, non-object
// JSON, or a payload without a message ID.
var ErrBadToken = errors.New("bad link token")

// Payload is the decoded token content. ChatID is the plain channel ID,
// without the -100 marker prefix; callers restore the prefix when they
// need the bot-API form.
type Payload struct {
	MsgID  int   `json:"msg_id"`
	ChatID int64 `json:"chat_id"`
}

type wirePayload struct {
	MsgID  int             `json:"msg_id"`
	ChatID json.RawMessage `json:"chat_id"`
}

// Encode builds a token for the given archive coordinates. Channel IDs
// in -100<id> form are canonicalized to the plain ID before encoding, so
// both representations produce the same token.
func Encode(msgID int, chatID int64) (string, error) {
	if id := constant.TDLibPeerID(chatID); id.IsChannel() {
		chatID = id.ToPlain()
	}
	raw, err := json.Marshal(Payload{MsgID: msgID, ChatID: chatID})
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := zw.Write(raw); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}

	return base62Encode(buf.Bytes()), nil
}

// Decode reverses Encode. All failures surface as ErrBadToken.
func Decode(token string) (*Payload, error) {
	compressed, err := base62Decode(token)
	if err != nil {
		return nil, err
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadToken, err)
	}

	var wire wirePayload
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	if wire.MsgID == 0 {
		return nil, fmt.Errorf("%w: missing msg_id", ErrBadToken)
	}
	chatID, err := parseChatID(wire.ChatID)
	if err != nil {
		return nil, err
	}
	return &Payload{MsgID: wire.MsgID, ChatID: chatID}, nil
}

// parseChatID accepts both a JSON number and a quoted decimal string;
// older link generators emitted either form.
func parseChatID(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		return 0, fmt.Errorf("%w: missing chat_id", ErrBadToken)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: chat_id %q", ErrBadToken, s)
	}
	return id, nil
}

func base62Encode(data []byte) string {
	num := new(big.Int).SetBytes(data)
	if num.Sign() == 0 {
		return "0"
	}
	base := big.NewInt(62)
	rem := new(big.Int)
	var out []byte
	for num.Sign() > 0 {
		num.DivMod(num, base, rem)
		out = append(out, base62Alphabet[rem.Int64()])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func base62Decode(token string) ([]byte, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrBadToken)
	}
	num := new(big.Int)
	base := big.NewInt(62)
	for i := 0; i < len(token); i++ {
		idx := strings.IndexByte(base62Alphabet, token[i])
		if idx < 0 {
			return nil, fmt.Errorf("%w: invalid character %q", ErrBadToken, token[i])
		}
		num.Mul(num, base)
		num.Add(num, big.NewInt(int64(idx)))
	}
	return num.Bytes(), nil
}
