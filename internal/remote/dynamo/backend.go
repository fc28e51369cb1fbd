package dynamo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/five82/courier/internal/remote"
)

// API is the subset of the DynamoDB client the backend uses.
type API interface {
	GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error)
	PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error)
}

// ErrTableNotFound is returned when the configured table does not exist.
var ErrTableNotFound = errors.New("dynamodb table not found")

const defaultPollInterval = 2 * time.Second

// record is one collection row. The partition key is "collection".
type record struct {
	Collection string `dynamodbav:"collection"`
	Doc        string `dynamodbav:"doc"`
	UpdatedAt  int64  `dynamodbav:"updated_at"`
}

// Ensure Backend implements remote.Backend at compile time.
var _ remote.Backend = (*Backend)(nil)

// Backend keeps each collection as a single item. DynamoDB has no push
// channel here, so Watch polls and emits when the document bytes change.
type Backend struct {
	client    API
	tableName string
	interval  time.Duration
	nowFunc   func() time.Time
}

// New creates a Backend over client. interval <= 0 uses the default poll cadence.
func New(client API, tableName string, interval time.Duration) *Backend {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Backend{
		client:    client,
		tableName: tableName,
		interval:  interval,
		nowFunc:   time.Now,
	}
}

// LoadAWSConfig resolves credentials and region, falling back to AWS_REGION
// and then us-east-1.
func LoadAWSConfig(ctx context.Context, region string) (sdkaws.Config, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return cfg, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// Open loads the default AWS configuration and returns a Backend for tableName.
func Open(ctx context.Context, tableName, region string, interval time.Duration) (*Backend, error) {
	if strings.TrimSpace(tableName) == "" {
		return nil, fmt.Errorf("dynamodb_table is required for the dynamodb backend")
	}
	cfg, err := LoadAWSConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return New(dyn.NewFromConfig(cfg), tableName, interval), nil
}

// Get fetches the collection item. A missing item reads as remote.Null.
func (b *Backend) Get(ctx context.Context, collection string) (json.RawMessage, error) {
	out, err := b.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &b.tableName,
		Key:            map[string]types.AttributeValue{"collection": &types.AttributeValueMemberS{Value: collection}},
		ConsistentRead: sdkaws.Bool(true),
	})
	if err != nil {
		return nil, wrapAPIError("get item", err)
	}
	if len(out.Item) == 0 {
		return remote.Null, nil
	}
	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal %s item: %w", collection, err)
	}
	if remote.IsNull(json.RawMessage(rec.Doc)) {
		return remote.Null, nil
	}
	if !json.Valid([]byte(rec.Doc)) {
		return nil, fmt.Errorf("get %s: stored document is not valid JSON", collection)
	}
	return json.RawMessage(rec.Doc), nil
}

// Set writes the whole collection item.
func (b *Backend) Set(ctx context.Context, collection string, doc json.RawMessage) error {
	if remote.IsNull(doc) {
		doc = remote.Null
	}
	if !json.Valid(doc) {
		return fmt.Errorf("set %s: document is not valid JSON", collection)
	}
	item, err := attributevalue.MarshalMap(record{
		Collection: collection,
		Doc:        string(doc),
		UpdatedAt:  b.nowFunc().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal %s item: %w", collection, err)
	}
	if _, err := b.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &b.tableName,
		Item:      item,
	}); err != nil {
		return wrapAPIError("put item", err)
	}
	return nil
}

// Watch polls the item and emits the first value and every change after it.
func (b *Backend) Watch(ctx context.Context, collection string, onValue func(json.RawMessage), onError func(error)) error {
	var last json.RawMessage
	failures := 0
	for {
		doc, err := b.Get(ctx, collection)
		delay := b.interval
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			if onError != nil {
				onError(err)
			}
			delay = remote.Backoff(failures, b.interval)
			failures++
		default:
			failures = 0
			if last == nil || !bytes.Equal(last, doc) {
				last = doc
				onValue(doc)
			}
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (b *Backend) Close() error { return nil }

func wrapAPIError(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException" {
		return fmt.Errorf("%s: %w: %s", op, ErrTableNotFound, apiErr.ErrorMessage())
	}
	return fmt.Errorf("%s: %w", op, err)
}
