package wire

// Opcode identifies the payload layout of a frame.
type Opcode uint16

// Opcode set from spec.
const (
	OpLoginReq      Opcode = 0x0001
	OpLoginResp     Opcode = 0x0002
	OpMove          Opcode = 0x0003
	OpMapUpdate     Opcode = 0x0004
	OpChatSend      Opcode = 0x0005
	OpChatRecv      Opcode = 0x0006
	OpPlayerJoin    Opcode = 0x0007
	OpPlayerLeave   Opcode = 0x0008
	OpPlayerDie     Opcode = 0x0009
	OpLogout        Opcode = 0x000A
	OpHeartbeat     Opcode = 0x0010
	OpHeartbeatAck  Opcode = 0x0011
	OpError         Opcode = 0x00FF
)

// MaxPayload is the largest payload length Send writes and Recv accepts;
// a larger declared length is rejected with ErrPayloadTooLarge.
const MaxPayload = 65536

// obfuscationKey XORs every plaintext payload byte. Not a security
// boundary — it deters casual snooping and catches single-bit corruption.
const obfuscationKey = 0x5A
