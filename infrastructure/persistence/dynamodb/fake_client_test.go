package dynamodb

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeClient is an in-memory stand-in for the DynamoDB API. Items live
// in a map keyed by the primary key attribute value; PutItem honors the
// two condition shapes the repositories use (attribute_not_exists and
// key equality). Query and Scan serve pre-scripted pages.
type fakeClient struct {
	keyAttr string
	items   map[string]map[string]types.AttributeValue

	queryPages []*dynamodb.QueryOutput
	scanPages  []*dynamodb.ScanOutput

	getErr    error
	putErr    error
	deleteErr error
	queryErr  error
	scanErr   error
	batchErr  error

	getCalls    int
	putCalls    int
	deleteCalls int
	queryCalls  int
	scanCalls   int
	batchCalls  int

	lastPut   *dynamodb.PutItemInput
	lastQuery *dynamodb.QueryInput
	lastScan  *dynamodb.ScanInput
	batchKeys [][]map[string]types.AttributeValue
}

func newFakeClient(keyAttr string) *fakeClient {
	return &fakeClient{
		keyAttr: keyAttr,
		items:   make(map[string]map[string]types.AttributeValue),
	}
}

func attrString(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	item, ok := f.items[attrString(params.Key[f.keyAttr])]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putCalls++
	f.lastPut = params
	if f.putErr != nil {
		return nil, f.putErr
	}

	key := attrString(params.Item[f.keyAttr])
	_, exists := f.items[key]
	cond := aws.ToString(params.ConditionExpression)
	switch {
	case strings.Contains(cond, "attribute_not_exists") && exists:
		return nil, &types.ConditionalCheckFailedException{}
	case cond != "" && !strings.Contains(cond, "attribute_not_exists") && !exists:
		return nil, &types.ConditionalCheckFailedException{}
	}

	f.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deleteCalls++
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	delete(f.items, attrString(params.Key[f.keyAttr]))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queryCalls++
	f.lastQuery = params
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if len(f.queryPages) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	page := f.queryPages[0]
	f.queryPages = f.queryPages[1:]
	return page, nil
}

func (f *fakeClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scanCalls++
	f.lastScan = params
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	if len(f.scanPages) > 0 {
		page := f.scanPages[0]
		f.scanPages = f.scanPages[1:]
		return page, nil
	}
	items := make([]map[string]types.AttributeValue, 0, len(f.items))
	for _, item := range f.items {
		items = append(items, item)
	}
	return &dynamodb.ScanOutput{Items: items}, nil
}

func (f *fakeClient) BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	f.batchCalls++
	if f.batchErr != nil {
		return nil, f.batchErr
	}

	out := &dynamodb.BatchGetItemOutput{Responses: make(map[string][]map[string]types.AttributeValue)}
	for table, req := range params.RequestItems {
		f.batchKeys = append(f.batchKeys, req.Keys)
		for _, key := range req.Keys {
			if item, ok := f.items[attrString(key[f.keyAttr])]; ok {
				out.Responses[table] = append(out.Responses[table], item)
			}
		}
	}
	return out, nil
}
