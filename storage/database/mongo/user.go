package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bataanhss/websystem/core/user"
)

type userDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Username       string             `bson:"username"`
	Email          string             `bson:"email,omitempty"`
	Name           string             `bson:"name"`
	Role           string             `bson:"role"`
	School         string             `bson:"school,omitempty"`
	ContactNumber  string             `bson:"contactNumber,omitempty"`
	SchoolAddress  string             `bson:"schoolAddress,omitempty"`
	HLAManagerName string             `bson:"hlaManagerName,omitempty"`
	HLARoleType    string             `bson:"hlaRoleType,omitempty"`
	AvatarURL      string             `bson:"avatarUrl,omitempty"`
	Municipality   string             `bson:"municipality,omitempty"`
	Province       string             `bson:"province,omitempty"`
	IsActive       bool               `bson:"isActive"`
	PasswordHash   []byte             `bson:"passwordHash"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
	LastLogin      time.Time          `bson:"lastLogin,omitempty"`
}

func (d userDoc) toUser() user.User {
	return user.User{
		ID:             d.ID.Hex(),
		Username:       d.Username,
		Email:          d.Email,
		Name:           d.Name,
		Role:           d.Role,
		School:         d.School,
		ContactNumber:  d.ContactNumber,
		SchoolAddress:  d.SchoolAddress,
		HLAManagerName: d.HLAManagerName,
		HLARoleType:    d.HLARoleType,
		AvatarURL:      d.AvatarURL,
		Municipality:   d.Municipality,
		Province:       d.Province,
		IsActive:       d.IsActive,
		PasswordHash:   d.PasswordHash,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
		LastLogin:      d.LastLogin,
	}
}

func newUserDoc(usr user.User) userDoc {
	return userDoc{
		ID:             parseID(usr.ID),
		Username:       usr.Username,
		Email:          usr.Email,
		Name:           usr.Name,
		Role:           usr.Role,
		School:         usr.School,
		ContactNumber:  usr.ContactNumber,
		SchoolAddress:  usr.SchoolAddress,
		HLAManagerName: usr.HLAManagerName,
		HLARoleType:    usr.HLARoleType,
		AvatarURL:      usr.AvatarURL,
		Municipality:   usr.Municipality,
		Province:       usr.Province,
		IsActive:       usr.IsActive,
		PasswordHash:   usr.PasswordHash,
		CreatedAt:      usr.CreatedAt,
		UpdatedAt:      usr.UpdatedAt,
		LastLogin:      usr.LastLogin,
	}
}

type userRepository struct {
	coll *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *mongo.Database) *userRepository {
	return &userRepository{coll: db.Collection(usersColl)}
}

// trapNoDocsErr maps mongo's "no documents" err to user.ErrNotFound
func (repo userRepository) trapNoDocsErr(err error, msg string) error {
	if err == mongo.ErrNoDocuments {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	or := bson.A{bson.M{"username": username}}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	filter := bson.M{"$or": or}
	if len(excludedUsers) > 0 {
		ids := make([]primitive.ObjectID, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, parseID(u.ID))
		}
		filter["_id"] = bson.M{"$nin": ids}
	}

	var existing userDoc
	err := repo.coll.FindOne(ctx, filter).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if existing.Username == username {
		return user.ErrUsernameExists
	}
	return user.ErrEmailExists
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	doc := newUserDoc(usr)
	doc.ID = newObjectID()
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		if isDuplicateKeyErr(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return doc.toUser(), nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := repo.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	defer cur.Close(ctx)

	users := make([]user.User, 0)
	for cur.Next(ctx) {
		var doc userDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding user")
		}
		users = append(users, doc.toUser())
	}
	return users, errors.Wrap(cur.Err(), "querying users")
}

func (repo userRepository) getOne(ctx context.Context, filter bson.M) (user.User, error) {
	var doc userDoc
	if err := repo.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return user.User{}, repo.trapNoDocsErr(err, "getting user")
	}
	return doc.toUser(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getOne(ctx, bson.M{"_id": parseID(id)})
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getOne(ctx, bson.M{"username": username})
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getOne(ctx, bson.M{"email": email})
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getOne(ctx, bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": username},
	}})
}

func (repo userRepository) QueryUserIDsBySchoolRole(ctx context.Context, school, hlaRoleType string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := repo.coll.Find(ctx, bson.M{"school": school, "hlaRoleType": hlaRoleType}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying users by school role")
	}
	defer cur.Close(ctx)

	ids := make([]string, 0)
	for cur.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding user id")
		}
		ids = append(ids, doc.ID.Hex())
	}
	return ids, errors.Wrap(cur.Err(), "querying users by school role")
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	set := bson.M{"updatedAt": usr.UpdatedAt}
	if usr.Username != "" {
		set["username"] = usr.Username
	}
	if usr.Email != "" {
		set["email"] = usr.Email
	}
	if usr.Name != "" {
		set["name"] = usr.Name
	}
	if usr.Role != "" {
		set["role"] = usr.Role
	}
	if usr.School != "" {
		set["school"] = usr.School
	}
	if usr.ContactNumber != "" {
		set["contactNumber"] = usr.ContactNumber
	}
	if usr.SchoolAddress != "" {
		set["schoolAddress"] = usr.SchoolAddress
	}
	if usr.HLAManagerName != "" {
		set["hlaManagerName"] = usr.HLAManagerName
	}
	if usr.HLARoleType != "" {
		set["hlaRoleType"] = usr.HLARoleType
	}
	if usr.AvatarURL != "" {
		set["avatarUrl"] = usr.AvatarURL
	}
	if usr.Municipality != "" {
		set["municipality"] = usr.Municipality
	}
	if usr.Province != "" {
		set["province"] = usr.Province
	}
	if len(usr.PasswordHash) > 0 {
		set["passwordHash"] = usr.PasswordHash
	}
	if isActive != nil {
		set["isActive"] = *isActive
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDoc
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": parseID(usr.ID)}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if isDuplicateKeyErr(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, repo.trapNoDocsErr(err, "updating user")
	}
	return doc.toUser(), nil
}

func (repo userRepository) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := repo.coll.UpdateOne(ctx, bson.M{"_id": parseID(id)}, bson.M{"$set": bson.M{"lastLogin": at}})
	return errors.Wrap(err, "setting last login")
}

func (repo userRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": parseID(id)})
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if res.DeletedCount == 0 {
		return user.ErrNotFound
	}
	return nil
}
