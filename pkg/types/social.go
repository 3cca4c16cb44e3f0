package types

// SocialLinks maps a platform key (facebook, instagram, x, tiktok, website)
// to a profile URL. Stored as jsonb on the campaign row.
type SocialLinks map[string]string
