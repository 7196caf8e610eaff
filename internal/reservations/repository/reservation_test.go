package repository

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestFindAllOptions_NewestFirst(t *testing.T) {
	opts := findAllOptions(20, 40)

	sort, ok := opts.Sort.(bson.D)
	if !ok {
		t.Fatalf("expected bson.D sort, got %T", opts.Sort)
	}
	if len(sort) != 1 || sort[0].Key != "desired_date" {
		t.Fatalf("expected sort on desired_date, got %v", sort)
	}
	if sort[0].Value != -1 {
		t.Errorf("expected descending sort, got %v", sort[0].Value)
	}

	if opts.Limit == nil || *opts.Limit != 20 {
		t.Errorf("expected limit 20, got %v", opts.Limit)
	}
	if opts.Skip == nil || *opts.Skip != 40 {
		t.Errorf("expected skip 40, got %v", opts.Skip)
	}
}
