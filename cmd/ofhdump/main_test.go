package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var frame = []byte{
	0x00, 0x11, 0x22, 0x33, 0x44, 0x55,
	0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb,
	0x81, 0x00,
	0x81, 0x00, 0xa0, 0x07,
	0x10, 0x00, 0x01, 0x20,
	0x90, 0x12,
}

func TestDescribe(t *testing.T) {
	line := describe(frame)
	parts := strings.Split(line, " | ")
	require.Equal(t, []string{
		"eth 66:77:88:99:aa:bb > 00:11:22:33:44:55 type 0x8100 (Dot1Q)",
		"vlan tpid 0x8100 pcp 5 vid 7",
		"ecpri rev 0x10 type 0 size 288",
		"ofh 0x9012",
	}, parts)
}

func TestDescribeShortFrame(t *testing.T) {
	parts := strings.Split(describe(frame[:20]), " | ")
	require.Len(t, parts, 4)
	require.True(t, strings.HasPrefix(parts[0], "eth 66:77:88:99:aa:bb"))
	require.Equal(t, "vlan tpid 0x8100 pcp 5 vid 7", parts[1])
	require.True(t, strings.HasPrefix(parts[2], "ecpri: ofh: buffer too short"))
	require.True(t, strings.HasPrefix(parts[3], "ofh: ofh: buffer too short"))

	parts = strings.Split(describe(nil), " | ")
	require.Len(t, parts, 4)
	for _, part := range parts {
		require.Contains(t, part, "buffer too short")
	}
}
