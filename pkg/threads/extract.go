package threads

// ExtractMedia resolves the media of the first thread item. The lookup order
// is: shared (quoted, else reposted) post, carousel, single video, single
// photo. Only one level of sharing is unwrapped. It returns false when the
// post has nothing downloadable.
func ExtractMedia(item ThreadItem) (Media, bool) {
	post := effectivePost(item.Post)
	if post == nil {
		return nil, false
	}
	caption := post.captionText()

	if len(post.CarouselMedia) > 0 {
		if m, ok := extractCarousel(post.CarouselMedia, caption); ok {
			return m, true
		}
	}

	if url := firstVideoURL(post.VideoVersions); url != "" {
		v := &Video{
			MediaItem: MediaItem{
				URL:       url,
				Width:     post.OriginalWidth,
				Height:    post.OriginalHeight,
				Thumbnail: firstImage(post.ImageVersions).URL,
				IsVideo:   true,
			},
			Text: caption,
		}
		if post.HasAudio != nil {
			v.HasAudio = *post.HasAudio
		}
		return v, true
	}

	if img := firstImage(post.ImageVersions); img.URL != "" {
		return &Photo{
			MediaItem: MediaItem{
				URL:    img.URL,
				Width:  orElse(post.OriginalWidth, img.Width),
				Height: orElse(post.OriginalHeight, img.Height),
			},
			Text: caption,
		}, true
	}

	return nil, false
}

// effectivePost swaps in the shared post when it carries media. A quoted
// post is checked before a reposted one.
func effectivePost(post *Post) *Post {
	share := post.shareInfo()
	if share == nil {
		return post
	}
	if share.QuotedPost.hasMedia() {
		return share.QuotedPost
	}
	if share.RepostedPost.hasMedia() {
		return share.RepostedPost
	}
	return post
}

// extractCarousel keeps only video slides when any slide is a video, and
// every image slide otherwise. Slides without a usable URL are skipped.
func extractCarousel(slides []CarouselItem, caption string) (Media, bool) {
	var videos, photos []MediaItem
	for _, s := range slides {
		if url := firstVideoURL(s.VideoVersions); url != "" {
			videos = append(videos, MediaItem{
				URL:       url,
				Width:     s.OriginalWidth,
				Height:    s.OriginalHeight,
				Thumbnail: firstImage(s.ImageVersions).URL,
				IsVideo:   true,
			})
			continue
		}
		if img := firstImage(s.ImageVersions); img.URL != "" {
			photos = append(photos, MediaItem{
				URL:    img.URL,
				Width:  orElse(s.OriginalWidth, img.Width),
				Height: orElse(s.OriginalHeight, img.Height),
			})
		}
	}

	if len(videos) > 0 {
		return &VideoCarousel{Items: videos, Text: caption}, true
	}
	if len(photos) > 0 {
		return &PhotoCarousel{Items: photos, Text: caption}, true
	}
	return nil, false
}

func orElse(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}
