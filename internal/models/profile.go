// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// ProfileSettings is a convenience map of the site-owner profile fields
// (display name, tagline, social links, hero text) stored as key/value
// rows. Keys are free-form; the admin panel decides what to store.
type ProfileSettings map[string]string
