package wallet

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	projectrpc "github.com/aman-zulfiqar/a2a-swap/internal/rpc"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrivateKey_Base58AndJSON(t *testing.T) {
	key := solana.NewWallet().PrivateKey

	fromB58, err := parsePrivateKey(base58.Encode(key))
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), fromB58.PublicKey())

	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	require.NoError(t, err)

	fromJSON, err := parsePrivateKey(string(raw))
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), fromJSON.PublicKey())
}

func TestParsePrivateKey_Rejects(t *testing.T) {
	for _, s := range []string{"[1,2,3]", "[300]", "0OIl", base58.Encode([]byte{1, 2, 3})} {
		_, err := parsePrivateKey(s)
		assert.Error(t, err, s)
	}
}

func TestLoadPrivateKey_FromFile(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	got, err := LoadPrivateKey(path)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), got.PublicKey())
}

func TestCommitmentReached(t *testing.T) {
	assert.True(t, commitmentReached("confirmed", "finalized"))
	assert.True(t, commitmentReached("confirmed", "confirmed"))
	assert.False(t, commitmentReached("confirmed", "processed"))
	assert.False(t, commitmentReached("finalized", "confirmed"))
	assert.True(t, commitmentReached("processed", "processed"))
}

func TestSignAndSend(t *testing.T) {
	blockhash := solana.HashFromBytes(make([]byte, 32))
	var sent string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result interface{}
		switch req.Method {
		case "getLatestBlockhash":
			result = map[string]interface{}{"value": map[string]interface{}{
				"blockhash": blockhash.String(), "lastValidBlockHeight": 1,
			}}
		case "sendTransaction":
			require.NoError(t, json.Unmarshal(req.Params[0], &sent))
			result = "5sig"
		case "getSignatureStatuses":
			result = map[string]interface{}{"value": []interface{}{
				map[string]interface{}{"slot": 1, "err": nil, "confirmationStatus": "confirmed"},
			}}
		default:
			t.Fatalf("unexpected method %s", req.Method)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": 1, "result": result})
	}))
	defer srv.Close()

	payer := solana.NewWallet().PrivateKey
	rpc := projectrpc.NewClient(projectrpc.ClientConfig{BaseURL: srv.URL})
	w, err := NewWallet(WalletConfig{PrivateKey: base58.Encode(payer), ConfirmTimeout: 5 * time.Second}, rpc)
	require.NoError(t, err)
	assert.Equal(t, payer.PublicKey(), w.PublicKey())

	extra := solana.NewWallet().PrivateKey
	ix := solana.NewInstruction(solana.SystemProgramID, []*solana.AccountMeta{
		{PublicKey: payer.PublicKey(), IsSigner: true, IsWritable: true},
		{PublicKey: extra.PublicKey(), IsSigner: true, IsWritable: true},
	}, []byte{0})

	sig, err := w.SignAndSend(context.Background(), []solana.Instruction{ix}, extra)
	require.NoError(t, err)
	assert.Equal(t, "5sig", sig)
	assert.NotEmpty(t, sent)

	raw, err := base64.StdEncoding.DecodeString(sent)
	require.NoError(t, err)
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	require.NoError(t, err)
	assert.Len(t, tx.Signatures, 2)
	require.NoError(t, tx.VerifySignatures())
}
