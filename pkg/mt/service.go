package mt

import (
	"fmt"
	"time"
)

// Service frames are FIN service-ID 21 frames exchanged for
// acknowledgement. Their body carries braced tags: 177 (timestamp),
// 451 (0 accept, 1 reject), 405 (reject code) and 108 (the message
// user reference of the acknowledged message).

// ServiceAck renders a positive acknowledgement frame for the message
// identified by mur.
func ServiceAck(lt, session string, seq uint64, mur string) []byte {
	return []byte(fmt.Sprintf("{1:F21%s%s%06d}{4:{177:%s}{451:0}{108:%s}}",
		lt, session, seq, serviceTimestamp(), mur))
}

// ServiceNack renders a negative acknowledgement frame carrying the
// given reject code.
func ServiceNack(lt, session string, seq uint64, mur, code string) []byte {
	return []byte(fmt.Sprintf("{1:F21%s%s%06d}{4:{177:%s}{451:1}{405:%s}{108:%s}}",
		lt, session, seq, serviceTimestamp(), code, mur))
}

func serviceTimestamp() string {
	return time.Now().UTC().Format("0601021504")
}
