// Package mongo implements storage.Storage on a MongoDB collection.
//
// Documents keep the field names used by the original collection
// ("StudentID", "Name", ...) and a native ObjectID "_id", so existing
// data can be served without conversion. The ObjectID is exposed to
// callers as its 24-character hex string.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// Collection is the name of the students collection.
const Collection = "students"

type studentDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	StudentID int                `bson:"StudentID"`
	Name      string             `bson:"Name"`
	Roll      int                `bson:"Roll"`
	Birthday  *types.Date        `bson:"Birthday,omitempty"`
	Address   string             `bson:"Address,omitempty"`
}

func (d studentDoc) student() types.Student {
	return types.Student{
		ID:        d.ID.Hex(),
		StudentID: d.StudentID,
		Name:      d.Name,
		Roll:      d.Roll,
		Birthday:  d.Birthday,
		Address:   d.Address,
	}
}

func newDoc(s types.Student) studentDoc {
	return studentDoc{
		StudentID: s.StudentID,
		Name:      s.Name,
		Roll:      s.Roll,
		Birthday:  s.Birthday,
		Address:   s.Address,
	}
}

// Mongo is the MongoDB-backed storage.Storage.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects to uri, verifies the connection with a ping and returns a
// store over database/students.
func New(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.New: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.New: ping: %w", err)
	}

	return &Mongo{
		client: client,
		coll:   client.Database(database).Collection(Collection),
	}, nil
}

// Close disconnects the client, waiting at most five seconds.
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// Ping checks that the primary is reachable.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) CreateStudent(ctx context.Context, student types.Student) (types.Student, error) {
	doc := newDoc(student)
	doc.ID = primitive.NewObjectID()

	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: insert: %w", err)
	}
	return doc.student(), nil
}

func (m *Mongo) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	oid, err := objectID(id)
	if err != nil {
		return types.Student{}, err
	}

	var doc studentDoc
	err = m.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Student{}, fmt.Errorf("no student found with id %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: %w", err)
	}
	return doc.student(), nil
}

func (m *Mongo) GetStudents(ctx context.Context) ([]types.Student, error) {
	cur, err := m.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("GetStudents: find: %w", err)
	}

	var docs []studentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("GetStudents: decode: %w", err)
	}

	students := make([]types.Student, 0, len(docs))
	for _, d := range docs {
		students = append(students, d.student())
	}
	return students, nil
}

func (m *Mongo) UpdateStudentByID(ctx context.Context, id string, student types.Student) (types.Student, error) {
	oid, err := objectID(id)
	if err != nil {
		return types.Student{}, err
	}

	// ReplaceOne semantics: every mutable field is overwritten and an
	// absent Birthday/Address is dropped from the document.
	opts := options.FindOneAndReplace().SetReturnDocument(options.After)

	var doc studentDoc
	err = m.coll.FindOneAndReplace(ctx, bson.M{"_id": oid}, newDoc(student), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Student{}, fmt.Errorf("no student found with id %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: %w", err)
	}
	return doc.student(), nil
}

func (m *Mongo) DeleteStudentByID(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("no student found with id %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// objectID parses a hex identity; a malformed one cannot name a stored
// document and is reported as not found.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("no student found with id %q: %w", id, storage.ErrNotFound)
	}
	return oid, nil
}
