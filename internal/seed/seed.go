// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"epsylon/internal/models"
	"epsylon/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Seeder populates the database with demo data. Writes go through the
// repository layer so the denormalized counters come out consistent with the
// seeded edges, the same way live traffic would produce them.
type Seeder struct {
	db       *gorm.DB
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	follows  repository.RelationshipRepository
	rooms    repository.ChatRoomRepository
	messages repository.MessageRepository
	rng      *rand.Rand
}

// NewSeeder creates a new Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:       db,
		users:    repository.NewUserRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		follows:  repository.NewRelationshipRepository(db),
		rooms:    repository.NewChatRoomRepository(db),
		messages: repository.NewMessageRepository(db),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll truncates all seeded tables.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE content_flags, notifications, group_messages, chat_room_members,
		chat_rooms, direct_messages, relationships, comment_likes, comments, post_likes,
		posts, notification_preferences, user_profiles, users RESTART IDENTITY CASCADE;`
	return s.db.Exec(strings.Join(strings.Fields(sql), " ")).Error
}

// Seed populates the database with demo users, a follow mesh, posts, and
// engagement.
func (s *Seeder) Seed(ctx context.Context, opts Options) error {
	log.Printf("Seeding %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
	}

	users, err := s.seedUsers(ctx, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	log.Printf("created %d users", len(users))

	if err := s.seedFollowMesh(ctx, users); err != nil {
		return fmt.Errorf("seed follow mesh: %w", err)
	}

	posts, err := s.seedPosts(ctx, users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("seed posts: %w", err)
	}
	log.Printf("created %d posts", len(posts))

	if err := s.seedEngagement(ctx, users, posts); err != nil {
		return fmt.Errorf("seed engagement: %w", err)
	}

	if err := s.seedRooms(ctx, users); err != nil {
		return fmt.Errorf("seed rooms: %w", err)
	}

	log.Println("Seeding complete.")
	return nil
}

func (s *Seeder) seedUsers(ctx context.Context, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		username := strings.ToLower(gofakeit.Username()) + fmt.Sprintf("%d", gofakeit.Number(100, 999))
		user, err := s.users.UpsertByOpenID(ctx, gofakeit.UUID(), &models.User{
			Name:        gofakeit.Name(),
			Email:       gofakeit.Email(),
			AvatarURL:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
			LoginMethod: "seed",
		})
		if err != nil {
			return nil, err
		}
		user.Username = &username
		user.Bio = gofakeit.Sentence(10)
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// seedFollowMesh gives each user a random set of follows.
func (s *Seeder) seedFollowMesh(ctx context.Context, users []*models.User) error {
	for _, u := range users {
		follows := s.rng.Intn(len(users)/2 + 1)
		for i := 0; i < follows; i++ {
			target := users[s.rng.Intn(len(users))]
			if target.ID == u.ID {
				continue
			}
			if _, err := s.follows.Follow(ctx, u.ID, target.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) seedPosts(ctx context.Context, users []*models.User, count int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[s.rng.Intn(len(users))]
		post := &models.Post{
			UserID:  author.ID,
			Content: gofakeit.Paragraph(1, 3, 8, "\n"),
		}
		if s.rng.Intn(4) == 0 {
			post.SetImages([]string{
				fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID()),
			})
		}
		if err := s.posts.Create(ctx, post); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// seedEngagement sprinkles likes and comments over the seeded posts.
func (s *Seeder) seedEngagement(ctx context.Context, users []*models.User, posts []*models.Post) error {
	for _, post := range posts {
		likes := s.rng.Intn(len(users)/3 + 1)
		for i := 0; i < likes; i++ {
			liker := users[s.rng.Intn(len(users))]
			if _, err := s.posts.Like(ctx, liker.ID, post.ID); err != nil {
				return err
			}
		}

		comments := s.rng.Intn(5)
		for i := 0; i < comments; i++ {
			commenter := users[s.rng.Intn(len(users))]
			if err := s.comments.Create(ctx, &models.Comment{
				PostID:  post.ID,
				UserID:  commenter.ID,
				Content: gofakeit.Sentence(12),
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

var roomNames = []string{
	"General", "Introductions", "Photography", "Music", "Gaming",
	"Fitness", "Travel", "Food", "Technology", "Books",
}

func (s *Seeder) seedRooms(ctx context.Context, users []*models.User) error {
	for _, name := range roomNames {
		creator := users[s.rng.Intn(len(users))]
		room := &models.ChatRoom{
			Name:        name,
			Description: gofakeit.Sentence(8),
			CreatorID:   creator.ID,
		}
		if err := s.rooms.Create(ctx, room); err != nil {
			return err
		}

		members := s.rng.Intn(len(users)/2 + 1)
		for i := 0; i < members; i++ {
			member := users[s.rng.Intn(len(users))]
			if _, err := s.rooms.AddMember(ctx, room.ID, member.ID, models.ChatRoomRoleMember); err != nil {
				return err
			}
		}

		chatter := s.rng.Intn(20)
		roomMembers, err := s.rooms.GetMembers(ctx, room.ID)
		if err != nil {
			return err
		}
		for i := 0; i < chatter; i++ {
			author := roomMembers[s.rng.Intn(len(roomMembers))]
			if err := s.rooms.CreateMessage(ctx, &models.GroupMessage{
				ChatRoomID: room.ID,
				UserID:     author.UserID,
				Content:    gofakeit.Sentence(10),
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
