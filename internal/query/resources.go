package query

// 一覧APIごとのリソース定義。
// *Columnsはrepositoryパッケージのスキャン順と共有する。

// ProfileColumns はprofilesのSELECT列。
const ProfileColumns = `id, user_id, name, university, COALESCE(city, ''), COALESCE(country, ''),
	term, budget, COALESCE(currency, ''), COALESCE(language, ''), COALESCE(summary, ''),
	rating, created_at`

// PostListColumns は投稿一覧のSELECT列。投稿者プロフィールの一部を含む。
const PostListColumns = `po.id, po.profile_id, po.title, po.body, po.created_at,
	p.university, COALESCE(p.city, ''), p.term`

// UniversityColumns はuniversitiesのSELECT列。
const UniversityColumns = `id, name, COALESCE(city, ''), COALESCE(country, ''),
	COALESCE(description, ''), created_at`

// CourseColumns はcoursesと大学を結合したSELECT列。
const CourseColumns = `c.id, c.university_id, c.subject_name, COALESCE(c.course_code, ''),
	COALESCE(c.description, ''), u.name, COALESCE(u.city, ''), COALESCE(u.country, ''),
	c.created_at`

// CourseFrom はコースと大学の結合句。
const CourseFrom = ` FROM courses c JOIN universities u ON u.id = c.university_id`

// Profiles はGET /profilesの定義。
var Profiles = Resource{
	Name:    "profiles",
	Base:    "SELECT " + ProfileColumns + " FROM profiles",
	OrderBy: "created_at",
	Filters: []Filter{
		{Key: "university", Kind: Contains, Columns: []string{"university"}},
		{Key: "city", Kind: Contains, Columns: []string{"city"}},
		{Key: "term", Kind: Equals, Columns: []string{"term"}},
		{Key: "language", Kind: Contains, Columns: []string{"language"}},
		{Key: "min_budget", Kind: Min, Columns: []string{"budget"}},
		{Key: "max_budget", Kind: Max, Columns: []string{"budget"}},
		{Key: "search", Kind: Search, Columns: []string{"name", "university", "city", "country", "summary"}},
	},
}

// Posts はGET /postsの定義。
var Posts = Resource{
	Name:    "posts",
	Base:    "SELECT " + PostListColumns + " FROM posts po JOIN profiles p ON p.id = po.profile_id",
	OrderBy: "po.created_at",
	Filters: []Filter{
		{Key: "university", Kind: Contains, Columns: []string{"p.university"}},
		{Key: "city", Kind: Contains, Columns: []string{"p.city"}},
		{Key: "term", Kind: Equals, Columns: []string{"p.term"}},
		{Key: "search", Kind: Search, Columns: []string{"po.title", "po.body"}},
	},
}

// Universities はGET /universitiesの定義。
var Universities = Resource{
	Name:    "universities",
	Base:    "SELECT " + UniversityColumns + " FROM universities",
	OrderBy: "created_at",
	Filters: []Filter{
		{Key: "search", Kind: Search, Columns: []string{"name", "city", "country"}},
		{Key: "city", Kind: Contains, Columns: []string{"city"}},
		{Key: "country", Kind: Contains, Columns: []string{"country"}},
	},
}

// Courses はGET /coursesの定義。
var Courses = Resource{
	Name:    "courses",
	Base:    "SELECT " + CourseColumns + CourseFrom,
	OrderBy: "c.created_at",
	Filters: []Filter{
		{Key: "search", Kind: Search, Columns: []string{"c.subject_name", "c.course_code", "c.description", "u.name"}},
		{Key: "university_id", Kind: EqualsInt, Columns: []string{"c.university_id"}},
	},
}
