package callformat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oasisprotocol/web3c-go/types"
)

const testHeader = `0x00736973002d00001{"expiry":12343333,"confidential":false}`

func TestValidateDeployHeader(t *testing.T) {
	require := require.New(t)

	hdr, code, err := ValidateDeployHeader(testHeader)
	require.NoError(err)
	require.EqualValues(12343333, hdr.Expiry)
	require.False(hdr.Confidential)
	require.Empty(code)

	hdr, code, err = ValidateDeployHeader(testHeader + "6080604052")
	require.NoError(err, "code may follow the metadata")
	require.Equal("6080604052", code)

	_, _, err = ValidateDeployHeader(testHeader[2:])
	require.ErrorIs(err, types.ErrInvalidHeader, "the 0x prefix is part of the literal")
	_, _, err = ValidateDeployHeader("0X" + testHeader[2:])
	require.ErrorIs(err, types.ErrInvalidHeader)

	require.Equal(testHeader+"6080604052", EncodeDeployHeader(hdr, "0x6080604052"))
}

func TestValidateDeployHeaderTagMutations(t *testing.T) {
	require := require.New(t)

	const tagLen = len("0x") + len(DeployHeaderTag)
	for i := 0; i < tagLen; i++ {
		for _, c := range []byte("0123456789abcdefxX{ ") {
			if testHeader[i] == c {
				continue
			}
			mutated := []byte(testHeader)
			mutated[i] = c
			_, _, err := ValidateDeployHeader(string(mutated))
			require.ErrorIs(err, types.ErrInvalidHeader, "mutation %q", mutated)
		}
	}
}

func TestValidateDeployHeaderMetadata(t *testing.T) {
	require := require.New(t)

	for _, tc := range []string{
		"",
		"0x",
		"0x00736973002d00001",
		`0x00736973002d00001{"expiry":12343333,"confidential":false`,
		`0x00736973002d00001{"expiry":12343333}`,
		`0x00736973002d00001{"confidential":false}`,
		`0x00736973002d00001{"expiry":"12343333","confidential":false}`,
		`0x00736973002d00001{"expiry":1.5,"confidential":false}`,
		`0x00736973002d00001{"expiry":12343333,"confidential":"false"}`,
		`0x00736973002d00001[12343333,false]`,
		`0x00736973002d00001null`,
		`0x00736973002d00001garbage`,
		`0x00736973002d00001{"EXPIRY":12343333,"CONFIDENTIAL":false}`,
		`0x00736973002d00001{"Expiry":12343333,"confidential":false}`,
		`0x00736973002d00001{"expiry":12343333,"Confidential":false}`,
		`0x00736973002d00001{"expiry":null,"confidential":false}`,
		`0x00736973002d00001{"expiry":12343333,"confidential":null}`,
	} {
		_, _, err := ValidateDeployHeader(tc)
		require.ErrorIs(err, types.ErrInvalidHeader, "header %q", tc)
	}

	hdr, _, err := ValidateDeployHeader(`0x00736973002d00001{"expiry":1,"confidential":true,"extra":[1,2]}`)
	require.NoError(err, "unknown fields are allowed")
	require.True(hdr.Confidential)
}

func TestClassifyDeployment(t *testing.T) {
	require := require.New(t)

	for _, tc := range []struct {
		data string
		kind DeploymentKind
	}{
		{"0x00656e63" + "00", DeploymentConfidential},
		{"00656E63", DeploymentConfidential},
		{testHeader, DeploymentHeader},
		{testHeader[2:], DeploymentInvalid},
		{"0X" + testHeader[2:], DeploymentInvalid},
		{"0x6080604052", DeploymentInvalid},
		{"0x", DeploymentInvalid},
		{"", DeploymentInvalid},
		{"0x00656e", DeploymentInvalid},
	} {
		require.Equal(tc.kind, ClassifyDeployment(tc.data), "data %q", tc.data)
	}

	require.Equal("confidential", DeploymentConfidential.String())
	require.Equal("header", DeploymentHeader.String())
	require.Equal("invalid", DeploymentInvalid.String())
}
