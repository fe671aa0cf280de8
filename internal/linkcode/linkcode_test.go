package linkcode

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		msgID  int
		chatID int64
	}{
		{"small ids", 1, 1},
		{"typical archive", 4521, 1234567890},
		{"large message id", 1<<30 + 7, 1987654321},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := Encode(tc.msgID, tc.chatID)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			payload, err := Decode(token)
			if err != nil {
				t.Fatalf("Decode(%q): %v", token, err)
			}
			if payload.MsgID != tc.msgID {
				t.Errorf("MsgID = %d, want %d", payload.MsgID, tc.msgID)
			}
			if payload.ChatID != tc.chatID {
				t.Errorf("ChatID = %d, want %d", payload.ChatID, tc.chatID)
			}
		})
	}
}

func TestEncodeCanonicalizesChannelID(t *testing.T) {
	// The same channel in bot-API form and plain form must mint the same
	// token.
	plain, err := Encode(99, 1234567890)
	if err != nil {
		t.Fatal(err)
	}
	prefixed, err := Encode(99, -1001234567890)
	if err != nil {
		t.Fatal(err)
	}
	if plain != prefixed {
		t.Errorf("tokens differ: plain=%q prefixed=%q", plain, prefixed)
	}
	payload, err := Decode(prefixed)
	if err != nil {
		t.Fatal(err)
	}
	if payload.ChatID != 1234567890 {
		t.Errorf("ChatID = %d, want plain 1234567890", payload.ChatID)
	}
}

func TestTokenIsURLSafe(t *testing.T) {
	token, err := Encode(12345, 1122334455)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < len(token); i++ {
		if !strings.ContainsRune(base62Alphabet, rune(token[i])) {
			t.Errorf("token %q contains byte %q outside the base-62 alphabet", token, token[i])
		}
	}
}

func TestDecodeBadTokens(t *testing.T) {
	token, err := Encode(7, 42)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not base62", "!!!not-base62!!!"},
		{"zero value", "0"},
		{"truncated", token[:len(token)/2]},
		{"garbage", "deadbeefcafe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(tc.token); !errors.Is(err, ErrBadToken) {
				t.Errorf("Decode(%q) error = %v, want ErrBadToken", tc.token, err)
			}
		})
	}
}

func TestDecodeMissingMsgID(t *testing.T) {
	// A structurally valid token whose payload has no message ID is
	// rejected; msg_id zero is the JSON zero value and means absent.
	token, err := Encode(0, 42)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(token); !errors.Is(err, ErrBadToken) {
		t.Errorf("Decode error = %v, want ErrBadToken", err)
	}
}

func TestParseChatIDForms(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{`1234567890`, 1234567890, true},
		{`"1234567890"`, 1234567890, true},
		{`"-1001234567890"`, -1001234567890, true},
		{`null`, 0, false},
		{`"abc"`, 0, false},
	}
	for _, tc := range cases {
		got, err := parseChatID([]byte(tc.raw))
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("parseChatID(%s) = %d, %v; want %d", tc.raw, got, err, tc.want)
		}
		if !tc.ok && !errors.Is(err, ErrBadToken) {
			t.Errorf("parseChatID(%s) error = %v, want ErrBadToken", tc.raw, err)
		}
	}
}

func TestBase62RoundTrip(t *testing.T) {
	data := []byte{0x78, 0xda, 0x01, 0x02, 0x03}
	decoded, err := base62Decode(base62Encode(data))
	if err != nil {
		t.Fatal(err)
	}
	if string(decoded) != string(data) {
		t.Errorf("round trip = %x, want %x", decoded, data)
	}
}
