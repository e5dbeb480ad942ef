package repository

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/lib/pq"

	"github.com/hitoshi/studyabroad/internal/model"
	"github.com/hitoshi/studyabroad/internal/query"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// CreateOwned は所有者確認付きのINSERT ... SELECTで投稿を作成する。
func (r *PostgresPostRepo) CreateOwned(ctx context.Context, profileID, userID int64, title, body string) (*model.Post, error) {
	post := &model.Post{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO posts (profile_id, title, body)
		 SELECT p.id, $3, $4 FROM profiles p WHERE p.id = $1 AND p.user_id = $2
		 RETURNING id, profile_id, title, body, created_at`,
		profileID, userID, title, body,
	).Scan(&post.ID, &post.ProfileID, &post.Title, &post.Body, &post.CreatedAt)
	if err == nil {
		post.Images = []model.PostImage{}
		return post, nil
	}
	if isValueOutOfRange(err) {
		return nil, fmt.Errorf("failed to insert post: %w: %v", model.ErrValueOutOfRange, err)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)`, profileID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check profile existence: %w", err)
	}
	if !exists {
		return nil, model.ErrNotFound
	}
	return nil, model.ErrNotOwner
}

// AddImagesOwned は投稿行をロックして所有者を確認し、画像レコードをまとめて作成する。
func (r *PostgresPostRepo) AddImagesOwned(ctx context.Context, postID, userID int64, urls []string) ([]model.PostImage, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var ownerID int64
	err = tx.QueryRowContext(ctx,
		`SELECT p.user_id FROM posts po
		 JOIN profiles p ON p.id = po.profile_id
		 WHERE po.id = $1
		 FOR UPDATE OF po`,
		postID,
	).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock post: %w", err)
	}
	if ownerID != userID {
		return nil, model.ErrNotOwner
	}

	rows, err := tx.QueryContext(ctx,
		`INSERT INTO post_images (post_id, url)
		 SELECT $1, u FROM unnest($2::text[]) WITH ORDINALITY AS t(u, n) ORDER BY n
		 RETURNING id, post_id, url, created_at`,
		postID, pq.Array(urls),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert post images: %w", err)
	}
	images := make([]model.PostImage, 0, len(urls))
	for rows.Next() {
		var img model.PostImage
		if err := rows.Scan(&img.ID, &img.PostID, &img.URL, &img.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan post image: %w", err)
		}
		images = append(images, img)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate post images: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	sortImagesByID(images)
	return images, nil
}

// sortImagesByID はRETURNINGの行順に依存せず、採番順(=入力順)に並べる。
func sortImagesByID(images []model.PostImage) {
	slices.SortFunc(images, func(a, b model.PostImage) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

// ListByProfile はプロフィールの投稿を新しい順に返す。画像は1クエリでまとめて取得する。
func (r *PostgresPostRepo) ListByProfile(ctx context.Context, profileID int64) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, profile_id, title, body, created_at
		 FROM posts WHERE profile_id = $1
		 ORDER BY created_at DESC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by profile: %w", err)
	}
	defer rows.Close()

	posts := make([]*model.Post, 0)
	byID := make(map[int64]*model.Post)
	ids := make([]int64, 0)
	for rows.Next() {
		p := &model.Post{Images: []model.PostImage{}}
		if err := rows.Scan(&p.ID, &p.ProfileID, &p.Title, &p.Body, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	if len(ids) == 0 {
		return posts, nil
	}

	imgRows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, url, created_at FROM post_images
		 WHERE post_id = ANY($1)
		 ORDER BY id`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list post images: %w", err)
	}
	defer imgRows.Close()

	for imgRows.Next() {
		var img model.PostImage
		if err := imgRows.Scan(&img.ID, &img.PostID, &img.URL, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post image: %w", err)
		}
		if p, ok := byID[img.PostID]; ok {
			p.Images = append(p.Images, img)
		}
	}
	if err := imgRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate post images: %w", err)
	}
	return posts, nil
}

// List は組み立て済みの一覧クエリを実行する。列順はquery.PostListColumns。
func (r *PostgresPostRepo) List(ctx context.Context, q query.Query) ([]*model.PostWithProfile, error) {
	rows, err := r.db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*model.PostWithProfile, 0)
	for rows.Next() {
		p := &model.PostWithProfile{}
		if err := rows.Scan(
			&p.ID, &p.ProfileID, &p.Title, &p.Body, &p.CreatedAt,
			&p.University, &p.City, &p.Term,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return posts, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
