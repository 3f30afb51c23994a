package wire

import (
	"encoding/binary"
	"errors"
)

// Fixed-field sizes from spec.md §6.
const (
	NameFieldLen = 16 // NUL-padded display name field
	ChatFieldLen = 128
)

var errShortPayload = errors.New("wire: payload too short")

// LoginReq is LOGIN_REQ: name[16] (NUL-padded), is_ai u8.
type LoginReq struct {
	Name string
	IsAI bool
}

func EncodeLoginReq(r LoginReq) []byte {
	buf := make([]byte, NameFieldLen+1)
	putFixedString(buf[:NameFieldLen], r.Name)
	if r.IsAI {
		buf[NameFieldLen] = 1
	}
	return buf
}

func DecodeLoginReq(payload []byte) (LoginReq, error) {
	if len(payload) < NameFieldLen+1 {
		return LoginReq{}, errShortPayload
	}
	return LoginReq{
		Name: getFixedString(payload[:NameFieldLen]),
		IsAI: payload[NameFieldLen] != 0,
	}, nil
}

// LoginResp is LOGIN_RESP: player_id u32, color u8, grid_width u16, grid_height u16.
type LoginResp struct {
	PlayerID   uint32
	Color      uint8
	GridWidth  uint16
	GridHeight uint16
}

func EncodeLoginResp(r LoginResp) []byte {
	buf := make([]byte, 9)
	binary.BigEndian.PutUint32(buf[0:4], r.PlayerID)
	buf[4] = r.Color
	binary.BigEndian.PutUint16(buf[5:7], r.GridWidth)
	binary.BigEndian.PutUint16(buf[7:9], r.GridHeight)
	return buf
}

func DecodeLoginResp(payload []byte) (LoginResp, error) {
	if len(payload) < 9 {
		return LoginResp{}, errShortPayload
	}
	return LoginResp{
		PlayerID:   binary.BigEndian.Uint32(payload[0:4]),
		Color:      payload[4],
		GridWidth:  binary.BigEndian.Uint16(payload[5:7]),
		GridHeight: binary.BigEndian.Uint16(payload[7:9]),
	}, nil
}

// EncodeMove builds a MOVE payload: direction u8.
func EncodeMove(direction uint8) []byte {
	return []byte{direction}
}

// DecodeMove reads a MOVE payload.
func DecodeMove(payload []byte) (uint8, error) {
	if len(payload) < 1 {
		return 0, errShortPayload
	}
	return payload[0], nil
}

// MapUpdate is MAP_UPDATE: tick u32, map[H][W] u8, scores[N] i32,
// alive[N] u8, active[N] u8, names[N][16].
type MapUpdate struct {
	Tick   uint32
	Grid   [][]byte // [H][W]
	Scores []int32
	Alive  []bool
	Active []bool
	Names  []string
}

func EncodeMapUpdate(m MapUpdate) []byte {
	h := len(m.Grid)
	w := 0
	if h > 0 {
		w = len(m.Grid[0])
	}
	n := len(m.Scores)

	size := 4 + h*w + n*4 + n + n + n*NameFieldLen
	buf := make([]byte, size)
	off := 0

	binary.BigEndian.PutUint32(buf[off:off+4], m.Tick)
	off += 4

	for y := 0; y < h; y++ {
		copy(buf[off:off+w], m.Grid[y])
		off += w
	}

	for i := 0; i < n; i++ {
		binary.BigEndian.PutUint32(buf[off:off+4], uint32(m.Scores[i]))
		off += 4
	}
	for i := 0; i < n; i++ {
		if m.Alive[i] {
			buf[off] = 1
		}
		off++
	}
	for i := 0; i < n; i++ {
		if m.Active[i] {
			buf[off] = 1
		}
		off++
	}
	for i := 0; i < n; i++ {
		putFixedString(buf[off:off+NameFieldLen], m.Names[i])
		off += NameFieldLen
	}

	return buf
}

// DecodeMapUpdate parses a MAP_UPDATE payload given the expected grid
// dimensions and player-table size (both fixed at process start).
func DecodeMapUpdate(payload []byte, width, height, maxPlayers int) (MapUpdate, error) {
	size := 4 + height*width + maxPlayers*4 + maxPlayers + maxPlayers + maxPlayers*NameFieldLen
	if len(payload) < size {
		return MapUpdate{}, errShortPayload
	}

	m := MapUpdate{
		Grid:   make([][]byte, height),
		Scores: make([]int32, maxPlayers),
		Alive:  make([]bool, maxPlayers),
		Active: make([]bool, maxPlayers),
		Names:  make([]string, maxPlayers),
	}
	off := 0

	m.Tick = binary.BigEndian.Uint32(payload[off : off+4])
	off += 4

	for y := 0; y < height; y++ {
		row := make([]byte, width)
		copy(row, payload[off:off+width])
		m.Grid[y] = row
		off += width
	}

	for i := 0; i < maxPlayers; i++ {
		m.Scores[i] = int32(binary.BigEndian.Uint32(payload[off : off+4]))
		off += 4
	}
	for i := 0; i < maxPlayers; i++ {
		m.Alive[i] = payload[off] != 0
		off++
	}
	for i := 0; i < maxPlayers; i++ {
		m.Active[i] = payload[off] != 0
		off++
	}
	for i := 0; i < maxPlayers; i++ {
		m.Names[i] = getFixedString(payload[off : off+NameFieldLen])
		off += NameFieldLen
	}

	return m, nil
}

// EncodeChatSend builds a CHAT_SEND payload: text[128].
func EncodeChatSend(text string) []byte {
	buf := make([]byte, ChatFieldLen)
	putFixedString(buf, text)
	return buf
}

func DecodeChatSend(payload []byte) (string, error) {
	if len(payload) < ChatFieldLen {
		return "", errShortPayload
	}
	return getFixedString(payload[:ChatFieldLen]), nil
}

// ChatRecv is CHAT_RECV: sender_id u32, sender_name[16], text[128].
type ChatRecv struct {
	SenderID   uint32
	SenderName string
	Text       string
}

func EncodeChatRecv(c ChatRecv) []byte {
	buf := make([]byte, 4+NameFieldLen+ChatFieldLen)
	binary.BigEndian.PutUint32(buf[0:4], c.SenderID)
	putFixedString(buf[4:4+NameFieldLen], c.SenderName)
	putFixedString(buf[4+NameFieldLen:], c.Text)
	return buf
}

func DecodeChatRecv(payload []byte) (ChatRecv, error) {
	if len(payload) < 4+NameFieldLen+ChatFieldLen {
		return ChatRecv{}, errShortPayload
	}
	return ChatRecv{
		SenderID:   binary.BigEndian.Uint32(payload[0:4]),
		SenderName: getFixedString(payload[4 : 4+NameFieldLen]),
		Text:       getFixedString(payload[4+NameFieldLen:]),
	}, nil
}

// EncodeError builds an ERROR payload: variable-length ASCII text.
func EncodeError(msg string) []byte {
	return []byte(msg)
}

// putFixedString writes s into dst, truncated to len(dst)-1 bytes so the
// field always ends in at least one NUL, and zero-pads the rest.
func putFixedString(dst []byte, s string) {
	if len(dst) == 0 {
		return
	}
	n := copy(dst[:len(dst)-1], s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

func getFixedString(src []byte) string {
	n := 0
	for n < len(src) && src[n] != 0 {
		n++
	}
	return string(src[:n])
}
