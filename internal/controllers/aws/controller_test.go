package aws

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go/logging"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeParameters struct {
	values map[string]string
	input  *ssm.GetParameterInput
}

func (f *fakeParameters) GetParameter(_ context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.input = params
	v, ok := f.values[aws.ToString(params.Name)]
	if !ok {
		return nil, &types.ParameterNotFound{Message: aws.String("not found")}
	}
	if v == "" {
		return &ssm.GetParameterOutput{}, nil
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(v)}}, nil
}

func TestGetSecret(t *testing.T) {
	fake := &fakeParameters{values: map[string]string{
		"/storefront/payfast": `{"merchantId":"10000100"}`,
		"/storefront/empty":   "",
	}}
	ctrl, err := NewController(context.Background(), WithParameterClient(fake))
	require.NoError(t, err)

	testCases := []struct {
		Name          string
		Key           string
		Expected      string
		ExpectedError string
	}{
		{Name: "found", Key: "/storefront/payfast", Expected: `{"merchantId":"10000100"}`},
		{Name: "not_found", Key: "/storefront/missing", ExpectedError: "failed to load SSM parameter /storefront/missing"},
		{Name: "no_value", Key: "/storefront/empty", ExpectedError: "has no value"},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			got, err := ctrl.GetSecret(context.Background(), tc.Key)
			if tc.ExpectedError != "" {
				assert.ErrorContains(t, err, tc.ExpectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, got)
			assert.True(t, aws.ToBool(fake.input.WithDecryption))
		})
	}
}

func TestGetSecretNotFoundIsUnwrappable(t *testing.T) {
	ctrl, err := NewController(context.Background(), WithParameterClient(&fakeParameters{}))
	require.NoError(t, err)

	_, err = ctrl.GetSecret(context.Background(), "/missing")
	var notFound *types.ParameterNotFound
	assert.True(t, errors.As(err, &notFound))
}

func TestAWSLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newAWSLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	l.Logf(logging.Warn, "retrying %s", "GetParameter")
	assert.Contains(t, buf.String(), "[WARN] retrying GetParameter")
}
