package explorer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contract = "0x00000000000000000000000000000000000000C1"

func TestExplorer_URLs(t *testing.T) {
	tests := []struct {
		network string
		tx      string
		asset   string
	}{
		{"sepolia", "https://sepolia.etherscan.io/tx/0xabc", "https://sepolia.etherscan.io/nft/" + contract + "/42"},
		{"", "https://sepolia.etherscan.io/tx/0xabc", "https://sepolia.etherscan.io/nft/" + contract + "/42"},
		{"MainNet", "https://etherscan.io/tx/0xabc", "https://etherscan.io/nft/" + contract + "/42"},
		{"localnet", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.network, func(t *testing.T) {
			e := New(tt.network, contract)
			assert.Equal(t, tt.tx, e.TxURL("0xabc"))
			assert.Equal(t, tt.asset, e.AssetURL(42))
		})
	}
}

func TestExplorer_MissingContract(t *testing.T) {
	e := New("sepolia", "")
	assert.Empty(t, e.AssetURL(1))
	assert.Empty(t, e.TxURL(""))
}

func TestQRCode(t *testing.T) {
	png, err := QRCode("https://sepolia.etherscan.io/tx/0xabc", 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = QRCode("", 128)
	assert.Error(t, err)
}
