package render

// Template keys. Kinds from the release package map onto the first three.
const (
	KindMovie     = "movie"
	KindTVEpisode = "tv_episode"
	KindAnime     = "anime"
	KindTVSeason  = "tv_season"
	KindDefault   = "default"
)

const movieTemplate = `🎬 {title} ({year})

⭐ TMDb Rating: {rating}

{overview}

{thumbnail}

📥 Premium Downloads:
{host1_name}: {host1_link}
{host2_name}: {host2_link}

📥 Mirror Links:
{host_links}`

const tvEpisodeTemplate = `📺 {full_title}

🖥 Quality: {quality}

{overview}

{thumbnail}

📥 Premium Downloads:
{host1_name}: {host1_link}
{host2_name}: {host2_link}

📥 Mirror Links:
{host_links}`

const animeTemplate = `🎌 {romaji_title}{english_title_suffix}

⭐ Rating: {rating}/100
📺 Episodes: {episodes}
🎬 Studio: {studio}
📅 Season: {season} {year}

{overview}

{thumbnail}

📥 Downloads:
{host1_name}: {host1_link}
{host2_name}: {host2_link}

🔗 Mirror Links:
{host_links}`

const tvSeasonTemplate = `📀 Complete Season {season}

{overview}

{thumbnail}

📥 Premium Downloads:
{host1_name}: {host1_link}
{host2_name}: {host2_link}

📥 Mirror Links:
{host_links}`

const defaultTemplate = "{title}\n\n{overview}\n\n{thumbnail}\n\n{primary_links}\n\nMirror Links:\n{host_links}"

// DefaultTemplates returns a fresh copy of the built-in templates.
func DefaultTemplates() map[string]string {
	return map[string]string{
		KindMovie:     movieTemplate,
		KindTVEpisode: tvEpisodeTemplate,
		KindAnime:     animeTemplate,
		KindTVSeason:  tvSeasonTemplate,
		KindDefault:   defaultTemplate,
	}
}
