package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/microlearning/site-api/internal/domain"
	"github.com/microlearning/site-api/internal/repository/rowstore"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoTable.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoTable stores the contact grid in a DynamoDB table keyed by
// (pk, row). Row 0 of each partition holds the append counter, so row
// numbers are assigned atomically and never reused.
type DynamoTable struct {
	client    DynamoAPI
	tableName string
	partition string
}

var _ rowstore.Table = (*DynamoTable)(nil)

// DynamoItem represents one grid row stored in DynamoDB.
type DynamoItem struct {
	PK        string   `dynamodbav:"pk"`
	Row       int      `dynamodbav:"row"`
	Cells     []string `dynamodbav:"cells"`
	UpdatedAt string   `dynamodbav:"updated_at"`
}

const counterRow = 0

// NewDynamoTable creates a DynamoDB-backed table using the default AWS
// credential chain.
func NewDynamoTable(ctx context.Context, tableName, partition, region string) (*DynamoTable, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("%w: loading AWS config: %v", domain.ErrStoreUnavailable, err)
	}
	return NewDynamoTableWithClient(dynamodb.NewFromConfig(cfg), tableName, partition), nil
}

// NewDynamoTableWithClient wraps an existing client.
func NewDynamoTableWithClient(client DynamoAPI, tableName, partition string) *DynamoTable {
	return &DynamoTable{client: client, tableName: tableName, partition: partition}
}

func (t *DynamoTable) key(row int) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk":  &types.AttributeValueMemberS{Value: t.partition},
		"row": &types.AttributeValueMemberN{Value: strconv.Itoa(row)},
	}
}

// ReadAll queries every row of the partition in ascending row order.
func (t *DynamoTable) ReadAll(ctx context.Context) ([][]string, error) {
	var rows [][]string
	var startKey map[string]types.AttributeValue

	for {
		result, err := t.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(t.tableName),
			KeyConditionExpression: aws.String("pk = :pk AND #row > :counter"),
			ExpressionAttributeNames: map[string]string{
				"#row": "row",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":      &types.AttributeValueMemberS{Value: t.partition},
				":counter": &types.AttributeValueMemberN{Value: strconv.Itoa(counterRow)},
			},
			ConsistentRead:    aws.Bool(true),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: querying DynamoDB: %v", domain.ErrStoreUnavailable, err)
		}

		for _, av := range result.Items {
			var item DynamoItem
			if err := attributevalue.UnmarshalMap(av, &item); err != nil {
				return nil, fmt.Errorf("%w: decoding row: %v", domain.ErrStoreUnavailable, err)
			}
			for len(rows) < item.Row {
				rows = append(rows, []string{})
			}
			rows[item.Row-1] = item.Cells
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	if rows == nil {
		rows = [][]string{}
	}
	return rows, nil
}

// ReadRow fetches one row with a consistent read.
func (t *DynamoTable) ReadRow(ctx context.Context, rowIndex int) ([]string, error) {
	if rowIndex <= counterRow {
		return nil, nil
	}
	result, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(t.tableName),
		Key:            t.key(rowIndex),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: getting row %d: %v", domain.ErrStoreUnavailable, rowIndex, err)
	}
	if len(result.Item) == 0 {
		return nil, nil
	}

	var item DynamoItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("%w: decoding row %d: %v", domain.ErrStoreUnavailable, rowIndex, err)
	}
	return item.Cells, nil
}

// AppendRow reserves the next row number from the counter item and writes
// the row there. The first data row is 2.
func (t *DynamoTable) AppendRow(ctx context.Context, cells []string) (int, error) {
	result, err := t.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(t.tableName),
		Key:              t.key(counterRow),
		UpdateExpression: aws.String("ADD next_row :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: reserving row: %v", domain.ErrStoreUnavailable, err)
	}

	var counter struct {
		NextRow int `dynamodbav:"next_row"`
	}
	if err := attributevalue.UnmarshalMap(result.Attributes, &counter); err != nil || counter.NextRow < 1 {
		return 0, fmt.Errorf("%w: unexpected counter value %v", domain.ErrStoreUnavailable, result.Attributes)
	}

	rowIndex := counter.NextRow + 1
	if err := t.WriteRow(ctx, rowIndex, cells); err != nil {
		return 0, err
	}
	return rowIndex, nil
}

// WriteRow puts the full row item, replacing any previous version.
func (t *DynamoTable) WriteRow(ctx context.Context, rowIndex int, cells []string) error {
	if rowIndex <= counterRow {
		return fmt.Errorf("invalid row %d", rowIndex)
	}

	av, err := attributevalue.MarshalMap(DynamoItem{
		PK:        t.partition,
		Row:       rowIndex,
		Cells:     cells,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshaling row: %w", err)
	}

	_, err = t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("%w: putting row %d: %v", domain.ErrStoreUnavailable, rowIndex, err)
	}
	return nil
}

// ObjectPutter is the subset of the S3 client used by ReportArchive.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ReportArchive writes JSON documents to an S3 bucket.
type ReportArchive struct {
	client ObjectPutter
	bucket string
}

// NewReportArchive creates an archive using the default AWS credential chain.
func NewReportArchive(ctx context.Context, bucket, region string) (*ReportArchive, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewReportArchiveWithClient(s3.NewFromConfig(cfg), bucket), nil
}

// NewReportArchiveWithClient wraps an existing client.
func NewReportArchiveWithClient(client ObjectPutter, bucket string) *ReportArchive {
	return &ReportArchive{client: client, bucket: bucket}
}

// SaveJSON saves data to S3 as indented JSON under key.
func (a *ReportArchive) SaveJSON(ctx context.Context, key string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling data: %w", err)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(jsonData),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("putting object to S3: %w", err)
	}
	return nil
}
