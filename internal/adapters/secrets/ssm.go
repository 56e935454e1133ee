package secrets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"review_proxy/internal/adapters/observability"
	"review_proxy/internal/domain"
)

// ParameterGetter is the slice of the SSM API the source needs.
type ParameterGetter interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSM reads the account and base64 key from Parameter Store, decrypting SecureStrings.
type SSM struct {
	api          ParameterGetter
	accountParam string
	keyParam     string
}

func NewSSM(api ParameterGetter, accountParam, keyParam string) *SSM {
	return &SSM{api: api, accountParam: accountParam, keyParam: keyParam}
}

// NewSSMFromEnv uses the default AWS credential chain and region.
func NewSSMFromEnv(ctx context.Context, accountParam, keyParam string) (*SSM, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSSM(ssm.NewFromConfig(cfg), accountParam, keyParam), nil
}

func (s *SSM) Resolve(ctx context.Context) (domain.Credentials, error) {
	keyVal, err := s.param(ctx, s.keyParam)
	if err != nil {
		return domain.Credentials{}, err
	}
	account, err := s.param(ctx, s.accountParam)
	if err != nil {
		return domain.Credentials{}, err
	}
	key, err := decodeKey(keyVal)
	if err != nil {
		return domain.Credentials{}, domain.CredentialUnavailable("decoding key parameter "+s.keyParam, err)
	}
	return domain.Credentials{Account: account, Key: key}, nil
}

func (s *SSM) param(ctx context.Context, name string) (string, error) {
	start := time.Now()
	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		observability.ObserveExternal("ssm", "GetParameter", 0, time.Since(start))
		return "", unavailable(ctx, "reading parameter "+name, err)
	}
	observability.ObserveExternal("ssm", "GetParameter", 200, time.Since(start))
	if out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return "", domain.CredentialUnavailable("reading parameter "+name, errors.New("parameter has no value"))
	}
	return aws.ToString(out.Parameter.Value), nil
}
