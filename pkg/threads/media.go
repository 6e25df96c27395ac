package threads

// MediaKind names the shape of a resolved post.
type MediaKind string

const (
	KindVideo         MediaKind = "video"
	KindPhoto         MediaKind = "photo"
	KindVideoCarousel MediaKind = "videos"
	KindPhotoCarousel MediaKind = "photos"
)

// Media is the normalized description of a post's media. It is implemented
// only by Video, Photo, VideoCarousel and PhotoCarousel.
type Media interface {
	Kind() MediaKind
	// Caption is never absent; posts without text yield "".
	Caption() string
	// Sources lists every downloadable URL in post order.
	Sources() []MediaItem
	// Preview returns the thumbnail image URL, or "" when there is none.
	Preview() string
}

// MediaItem is a single downloadable file.
type MediaItem struct {
	URL       string `json:"url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Thumbnail string `json:"thumbnail,omitempty"`
	IsVideo   bool   `json:"is_video"`
}

// Video is a single-video post.
type Video struct {
	MediaItem
	Text     string `json:"caption"`
	HasAudio bool   `json:"has_audio"`
}

func (v *Video) Kind() MediaKind { return KindVideo }
func (v *Video) Caption() string { return v.Text }
func (v *Video) Sources() []MediaItem { return []MediaItem{v.MediaItem} }
func (v *Video) Preview() string { return v.Thumbnail }

// Photo is a single-image post.
type Photo struct {
	MediaItem
	Text string `json:"caption"`
}

func (p *Photo) Kind() MediaKind { return KindPhoto }
func (p *Photo) Caption() string { return p.Text }
func (p *Photo) Sources() []MediaItem { return []MediaItem{p.MediaItem} }
func (p *Photo) Preview() string { return "" }

// VideoCarousel holds the video items of a carousel post. Items is never empty.
type VideoCarousel struct {
	Items []MediaItem `json:"items"`
	Text  string      `json:"caption"`
}

func (c *VideoCarousel) Kind() MediaKind { return KindVideoCarousel }
func (c *VideoCarousel) Caption() string { return c.Text }
func (c *VideoCarousel) Sources() []MediaItem { return c.Items }
func (c *VideoCarousel) Preview() string { return c.Items[0].Thumbnail }

// PhotoCarousel holds the images of a carousel post with no video. Items is never empty.
type PhotoCarousel struct {
	Items []MediaItem `json:"items"`
	Text  string      `json:"caption"`
}

func (c *PhotoCarousel) Kind() MediaKind { return KindPhotoCarousel }
func (c *PhotoCarousel) Caption() string { return c.Text }
func (c *PhotoCarousel) Sources() []MediaItem { return c.Items }
func (c *PhotoCarousel) Preview() string { return "" }

// Resolution is the outcome of resolving a post URL. It is implemented only
// by Embedded, Direct and NotFound.
type Resolution interface {
	resolution()
}

// Embedded is a delegate URL found on the public embed page. Native marks a
// Threads-hosted video that should be fetched directly instead of handed to
// yt-dlp.
type Embedded struct {
	URL    string
	Native bool
}

// Direct is media resolved through the internal API.
type Direct struct {
	Media    Media
	Username string
}

// NotFound means the post was checked and has nothing downloadable.
type NotFound struct {
	Reason string
}

func (*Embedded) resolution() {}
func (*Direct) resolution() {}
func (*NotFound) resolution() {}
