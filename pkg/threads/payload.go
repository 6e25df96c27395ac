package threads

// graphQLResponse is the envelope returned by the post page query. Data.Data
// is null when the token was rejected or the post is not visible.
type graphQLResponse struct {
	Data *struct {
		Data *PostData `json:"data"`
	} `json:"data"`
}

// PostData is the post page payload.
type PostData struct {
	ContainingThread struct {
		ThreadItems []ThreadItem `json:"thread_items"`
	} `json:"containing_thread"`
}

// ThreadItem is one entry of a thread; the first one is the requested post.
type ThreadItem struct {
	Post *Post `json:"post"`
}

// Post models the subset of a Threads post that carries media.
type Post struct {
	Code            string           `json:"code"`
	User            *PostUser        `json:"user"`
	Caption         *PostCaption     `json:"caption"`
	OriginalWidth   int              `json:"original_width"`
	OriginalHeight  int              `json:"original_height"`
	HasAudio        *bool            `json:"has_audio"`
	VideoVersions   []VideoVersion   `json:"video_versions"`
	ImageVersions   *ImageVersions   `json:"image_versions2"`
	CarouselMedia   []CarouselItem   `json:"carousel_media"`
	TextPostAppInfo *TextPostAppInfo `json:"text_post_app_info"`
}

// PostUser is the post author.
type PostUser struct {
	Username string `json:"username"`
}

// PostCaption holds the post text.
type PostCaption struct {
	Text string `json:"text"`
}

// VideoVersion is one encoding of a video. Upstream lists the default first.
type VideoVersion struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   int    `json:"type"`
}

// ImageVersions wraps the list of image renditions.
type ImageVersions struct {
	Candidates []ImageCandidate `json:"candidates"`
}

// ImageCandidate is one rendition of an image.
type ImageCandidate struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// CarouselItem is one slide of a carousel post.
type CarouselItem struct {
	OriginalWidth  int            `json:"original_width"`
	OriginalHeight int            `json:"original_height"`
	VideoVersions  []VideoVersion `json:"video_versions"`
	ImageVersions  *ImageVersions `json:"image_versions2"`
}

// TextPostAppInfo carries the share wrapper for quotes and reposts.
type TextPostAppInfo struct {
	ShareInfo *ShareInfo `json:"share_info"`
}

// ShareInfo points at the post being quoted or reposted, if any.
type ShareInfo struct {
	QuotedPost   *Post `json:"quoted_post"`
	RepostedPost *Post `json:"reposted_post"`
}

func (p *Post) captionText() string {
	if p == nil || p.Caption == nil {
		return ""
	}
	return p.Caption.Text
}

func (p *Post) username() string {
	if p == nil || p.User == nil {
		return ""
	}
	return p.User.Username
}

func (p *Post) shareInfo() *ShareInfo {
	if p == nil || p.TextPostAppInfo == nil {
		return nil
	}
	return p.TextPostAppInfo.ShareInfo
}

// hasMedia reports whether a post carries any video, image or carousel data.
func (p *Post) hasMedia() bool {
	if p == nil {
		return false
	}
	return firstVideoURL(p.VideoVersions) != "" ||
		firstImage(p.ImageVersions).URL != "" ||
		len(p.CarouselMedia) > 0
}

func firstVideoURL(versions []VideoVersion) string {
	if len(versions) == 0 {
		return ""
	}
	return versions[0].URL
}

func firstImage(iv *ImageVersions) ImageCandidate {
	if iv == nil || len(iv.Candidates) == 0 {
		return ImageCandidate{}
	}
	return iv.Candidates[0]
}
