package feed_test

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
  <title>Example Feed</title>
  <link>https://example.com</link>
  <description>Example description</description>
  <language>en-us</language>
  <item>
    <title>First post</title>
    <link>https://example.com/1</link>
    <description>&lt;p&gt;Hello &lt;b&gt;world&lt;/b&gt;&lt;/p&gt;</description>
    <content:encoded><![CDATA[<div>Full body</div>]]></content:encoded>
    <dc:creator>Jane</dc:creator>
    <guid>post-1</guid>
    <pubDate>Mon, 15 Jan 2024 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Second post</title>
    <link>https://example.com/2</link>
    <guid>post-2</guid>
  </item>
</channel>
</rss>`

const atomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <link href="https://atom.example.com/"/>
  <id>urn:feed</id>
  <updated>2024-02-01T00:00:00Z</updated>
  <entry>
    <title>Atom entry</title>
    <link href="https://atom.example.com/e1"/>
    <id>urn:entry:1</id>
    <updated>2024-02-01T12:00:00Z</updated>
    <summary>Short summary</summary>
    <content type="html">&lt;p&gt;Atom body&lt;/p&gt;</content>
    <author><name>Alice</name></author>
  </entry>
</feed>`
